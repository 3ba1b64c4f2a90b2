package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/Onyex101/secureballot-sub006/election"
	"github.com/Onyex101/secureballot-sub006/votecrypt"
	"github.com/gookit/color"
	"github.com/phayes/decryptpem"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli"
)

func actionAdminTally(c *cli.Context) error {
	electionID := c.Args().First()
	adminID := c.String("by")
	reason := c.String("reason")
	if electionID == "" || adminID == "" || reason == "" {
		log.Fatal("usage: secureballot admin tally --by=<admin-id> --reason=<reason> [--shares=<file> | --key=<pem>] <election-id>")
	}

	priv, err := tallyPrivateKey(c, electionID, adminID, reason)
	if err != nil {
		log.Fatal(err)
	}

	records, err := pgStore.ListSealedVotes(electionID)
	if err != nil {
		log.Fatal(err)
	}
	if len(records) == 0 {
		fmt.Println("No sealed votes for election", electionID)
		return nil
	}
	color.Printf("Sealed votes : <suc>%d</>\n", len(records))

	sealed := make([]*votecrypt.SealedVote, len(records))
	for i, rec := range records {
		sv := rec.SealedVote
		sealed[i] = &sv
	}
	result := election.BatchDecrypt(sealed, priv, 0)

	// Count decrypted ballots per candidate and flag the processed ones.
	counts := map[string]int{}
	bar := progressbar.Default(int64(len(result.Items)))
	for _, item := range result.Items {
		bar.Add(1)
		if item.Status != election.StatusProcessed {
			color.Printf("<error>failed</>\t%s: %s\n", item.ReceiptCode, item.Reason)
			continue
		}
		counts[item.Vote.CandidateID]++
		if err := pgStore.MarkVoteCounted(item.Vote.VoterID, item.Vote.ElectionID); err != nil {
			log.Printf("WARNING: could not mark vote counted for receipt %s: %v", item.ReceiptCode, err)
		}
	}

	fmt.Printf("\nProcessed: %d, failed: %d\n\n", result.Processed, result.Failed)

	candidates := make([]string, 0, len(counts))
	for candidate := range counts {
		candidates = append(candidates, candidate)
	}
	sort.Strings(candidates)
	for _, candidate := range candidates {
		color.Printf("%s : <suc>%d</>\n", candidate, counts[candidate])
	}
	return nil
}

// tallyPrivateKey obtains the election private key, either from a
// passphrase-protected PEM file or by quorum reconstruction from share
// tokens.
func tallyPrivateKey(c *cli.Context, electionID, adminID, reason string) (votecrypt.PrivateKey, error) {
	if keyPath := c.String("key"); keyPath != "" {
		pemBlock, err := decryptpem.DecryptFileWithPrompt(keyPath)
		if err != nil {
			return nil, err
		}
		return votecrypt.NewPrivateKeyFromBlock(pemBlock)
	}

	sharesPath := c.String("shares")
	if sharesPath == "" {
		return nil, fmt.Errorf("either --shares or --key is required")
	}
	shares, err := readShareFile(sharesPath)
	if err != nil {
		return nil, err
	}

	return manager.ReconstructPrivateKey(electionID, shares, election.ReconstructionContext{
		AdminID: adminID,
		Reason:  reason,
	})
}

// readShareFile parses a file with one share token per line. Blank lines and
// lines starting with '#' are skipped.
func readShareFile(path string) ([]votecrypt.KeyShare, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var shares []votecrypt.KeyShare
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		s, err := votecrypt.ParseShareToken(line)
		if err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return shares, nil
}
