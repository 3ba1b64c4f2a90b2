package election

import (
	"runtime"
	"sync"

	"github.com/Onyex101/secureballot-sub006/votecrypt"
)

// Per-record outcomes of a batch decryption.
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// BatchItem is the outcome of decrypting one sealed vote. Index refers back
// to the position in the input slice.
type BatchItem struct {
	Index       int                    `json:"index"`
	ReceiptCode string                 `json:"receiptCode"`
	Status      string                 `json:"status"`
	Vote        *votecrypt.VotePayload `json:"vote,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
}

// BatchResult is a multi-status result: one record's failure never aborts
// the rest of the batch.
type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
}

// BatchDecrypt decrypts many sealed votes with a reconstructed private key.
// Records are independent, so they are decrypted in parallel across at most
// workers goroutines (<= 0 selects one per CPU). Outcomes land in
// index-addressed slots, so the result order matches the input order exactly
// and no entry is lost or duplicated under concurrency.
func BatchDecrypt(sealed []*votecrypt.SealedVote, priv votecrypt.PrivateKey, workers int) *BatchResult {
	result := &BatchResult{Items: make([]BatchItem, len(sealed))}
	if len(sealed) == 0 {
		return result
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(sealed) {
		workers = len(sealed)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				result.Items[i] = decryptOne(i, sealed[i], priv)
			}
		}()
	}
	for i := range sealed {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	for _, item := range result.Items {
		if item.Status == StatusProcessed {
			result.Processed++
		} else {
			result.Failed++
		}
	}
	return result
}

func decryptOne(index int, sv *votecrypt.SealedVote, priv votecrypt.PrivateKey) BatchItem {
	item := BatchItem{Index: index}
	if sv == nil {
		item.Status = StatusFailed
		item.Reason = "no sealed vote at this position"
		return item
	}
	item.ReceiptCode = sv.ReceiptCode

	payload, err := votecrypt.UnsealVote(sv, priv)
	if err != nil {
		item.Status = StatusFailed
		item.Reason = err.Error()
		return item
	}
	item.Status = StatusProcessed
	item.Vote = payload
	return item
}
