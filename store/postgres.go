package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Onyex101/secureballot-sub006/votecrypt"
	"github.com/lib/pq"
	"github.com/phayes/errors"
)

// Schema creates the tables backing the Postgres store. The unique
// constraints are what make SaveKeyRecord and SaveSealedVote atomic
// insert-if-absent operations under concurrency.
const Schema = `CREATE TABLE IF NOT EXISTS elections (
  election_id            varchar(48) PRIMARY KEY,
  name                   text NOT NULL,
  status                 varchar(32) NOT NULL,
  public_key_fingerprint varchar(64) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS election_keys (
  election_id            varchar(48) PRIMARY KEY,
  public_key             text NOT NULL,
  public_key_fingerprint varchar(64) NOT NULL,
  encrypted_private_key  bytea NOT NULL,
  private_key_iv         bytea NOT NULL,
  private_key_shares     text NOT NULL,
  threshold              integer NOT NULL,
  generated_at           timestamptz NOT NULL,
  generated_by           text NOT NULL,
  is_active              boolean NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS sealed_votes (
  voter_id               varchar(64) NOT NULL,
  election_id            varchar(48) NOT NULL,
  encrypted_vote_data    bytea NOT NULL,
  encrypted_aes_key      bytea NOT NULL,
  iv                     bytea NOT NULL,
  vote_hash              varchar(64) NOT NULL,
  public_key_fingerprint varchar(64) NOT NULL,
  vote_timestamp         timestamptz NOT NULL,
  vote_source            varchar(16) NOT NULL,
  receipt_code           char(16) NOT NULL UNIQUE,
  is_counted             boolean NOT NULL DEFAULT false,
  created_at             timestamptz NOT NULL DEFAULT now(),
  PRIMARY KEY (voter_id, election_id)
);

CREATE INDEX IF NOT EXISTS sealed_votes_election_idx ON sealed_votes (election_id);

CREATE TABLE IF NOT EXISTS audit_log (
  id         bigserial PRIMARY KEY,
  actor_id   text NOT NULL,
  event_type text NOT NULL,
  ip_address text NOT NULL DEFAULT '',
  user_agent text NOT NULL DEFAULT '',
  details    text NOT NULL DEFAULT '{}',
  created_at timestamptz NOT NULL DEFAULT now()
);`

var (
	ErrPGQuery   = errors.New("postgres query failed")
	ErrPGEncode  = errors.New("could not encode record for storage")
	ErrPGDecode  = errors.New("could not decode stored record")
	ErrPGAuditNA = errors.New("could not append audit entry")
)

// PG implements every collaborator interface on top of a Postgres database.
type PG struct {
	db *sql.DB
}

// NewPG wraps an open database handle.
func NewPG(db *sql.DB) *PG {
	return &PG{db: db}
}

// SetUp loads the schema. Run once before normal operations.
func (p *PG) SetUp() error {
	if _, err := p.db.Exec(Schema); err != nil {
		return errors.Wrap(err, ErrPGQuery)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code.Name() == "unique_violation"
}

func (p *PG) GetElection(electionID string) (*Election, error) {
	var e Election
	err := p.db.QueryRow(
		`SELECT election_id, name, status, public_key_fingerprint FROM elections WHERE election_id = $1`,
		electionID,
	).Scan(&e.ID, &e.Name, &e.Status, &e.PublicKeyFingerprint)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(votecrypt.ErrNotFound, "election %q", electionID)
	}
	if err != nil {
		return nil, errors.Wrap(err, ErrPGQuery)
	}
	return &e, nil
}

func (p *PG) SetPublicKeyFingerprint(electionID, fingerprint string) error {
	res, err := p.db.Exec(
		`UPDATE elections SET public_key_fingerprint = $2 WHERE election_id = $1`,
		electionID, fingerprint,
	)
	if err != nil {
		return errors.Wrap(err, ErrPGQuery)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(votecrypt.ErrNotFound, "election %q", electionID)
	}
	return nil
}

func (p *PG) SaveKeyRecord(rec *ElectionKeyRecord) error {
	shares, err := json.Marshal(rec.PrivateKeyShares)
	if err != nil {
		return errors.Wrap(err, ErrPGEncode)
	}
	_, err = p.db.Exec(
		`INSERT INTO election_keys
		   (election_id, public_key, public_key_fingerprint, encrypted_private_key,
		    private_key_iv, private_key_shares, threshold, generated_at, generated_by, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ElectionID, rec.PublicKey.String(), rec.PublicKeyFingerprint,
		rec.EncryptedPrivateKey, rec.PrivateKeyIV, string(shares),
		rec.Threshold, rec.GeneratedAt, rec.GeneratedBy, rec.IsActive,
	)
	if isUniqueViolation(err) {
		return errors.Wrapf(votecrypt.ErrConflict, "a key pair already exists for election %q", rec.ElectionID)
	}
	if err != nil {
		return errors.Wrap(err, ErrPGQuery)
	}
	return nil
}

func (p *PG) LoadKeyRecord(electionID string) (*ElectionKeyRecord, error) {
	var (
		rec       ElectionKeyRecord
		publicKey string
		shares    string
	)
	err := p.db.QueryRow(
		`SELECT election_id, public_key, public_key_fingerprint, encrypted_private_key,
		        private_key_iv, private_key_shares, threshold, generated_at, generated_by, is_active
		   FROM election_keys WHERE election_id = $1`,
		electionID,
	).Scan(&rec.ElectionID, &publicKey, &rec.PublicKeyFingerprint, &rec.EncryptedPrivateKey,
		&rec.PrivateKeyIV, &shares, &rec.Threshold, &rec.GeneratedAt, &rec.GeneratedBy, &rec.IsActive)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(votecrypt.ErrNotFound, "no key record for election %q", electionID)
	}
	if err != nil {
		return nil, errors.Wrap(err, ErrPGQuery)
	}

	rec.PublicKey, err = votecrypt.NewPublicKey([]byte(publicKey))
	if err != nil {
		return nil, errors.Wrap(err, ErrPGDecode)
	}
	if err := json.Unmarshal([]byte(shares), &rec.PrivateKeyShares); err != nil {
		return nil, errors.Wrap(err, ErrPGDecode)
	}
	return &rec, nil
}

func (p *PG) DeactivateKeyRecord(electionID string) error {
	res, err := p.db.Exec(
		`UPDATE election_keys SET is_active = false WHERE election_id = $1`,
		electionID,
	)
	if err != nil {
		return errors.Wrap(err, ErrPGQuery)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(votecrypt.ErrNotFound, "no key record for election %q", electionID)
	}
	return nil
}

func (p *PG) SaveSealedVote(rec *SealedVoteRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := p.db.Exec(
		`INSERT INTO sealed_votes
		   (voter_id, election_id, encrypted_vote_data, encrypted_aes_key, iv, vote_hash,
		    public_key_fingerprint, vote_timestamp, vote_source, receipt_code, is_counted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.VoterID, rec.ElectionID, rec.EncryptedVoteData, rec.EncryptedAESKey, rec.IV,
		rec.VoteHash, rec.PublicKeyFingerprint, rec.VoteTimestamp, rec.VoteSource,
		rec.ReceiptCode, rec.IsCounted, createdAt,
	)
	if isUniqueViolation(err) {
		return errors.Wrapf(votecrypt.ErrConflict, "a sealed vote already exists for voter %q in election %q", rec.VoterID, rec.ElectionID)
	}
	if err != nil {
		return errors.Wrap(err, ErrPGQuery)
	}
	return nil
}

const sealedVoteColumns = `voter_id, election_id, encrypted_vote_data, encrypted_aes_key, iv, vote_hash,
	public_key_fingerprint, vote_timestamp, vote_source, receipt_code, is_counted, created_at`

func (p *PG) scanSealedVote(row interface{ Scan(...interface{}) error }) (*SealedVoteRecord, error) {
	var rec SealedVoteRecord
	err := row.Scan(&rec.VoterID, &rec.ElectionID, &rec.EncryptedVoteData, &rec.EncryptedAESKey,
		&rec.IV, &rec.VoteHash, &rec.PublicKeyFingerprint, &rec.VoteTimestamp, &rec.VoteSource,
		&rec.ReceiptCode, &rec.IsCounted, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *PG) LoadSealedVoteByReceipt(receiptCode string) (*SealedVoteRecord, error) {
	rec, err := p.scanSealedVote(p.db.QueryRow(
		`SELECT `+sealedVoteColumns+` FROM sealed_votes WHERE receipt_code = $1`, receiptCode))
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(votecrypt.ErrNotFound, "no sealed vote for this receipt code")
	}
	if err != nil {
		return nil, errors.Wrap(err, ErrPGQuery)
	}
	return rec, nil
}

func (p *PG) LoadSealedVote(voterID, electionID string) (*SealedVoteRecord, error) {
	rec, err := p.scanSealedVote(p.db.QueryRow(
		`SELECT `+sealedVoteColumns+` FROM sealed_votes WHERE voter_id = $1 AND election_id = $2`,
		voterID, electionID))
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(votecrypt.ErrNotFound, "no sealed vote for voter %q in election %q", voterID, electionID)
	}
	if err != nil {
		return nil, errors.Wrap(err, ErrPGQuery)
	}
	return rec, nil
}

func (p *PG) ListSealedVotes(electionID string) ([]*SealedVoteRecord, error) {
	rows, err := p.db.Query(
		`SELECT `+sealedVoteColumns+` FROM sealed_votes WHERE election_id = $1 ORDER BY created_at`,
		electionID)
	if err != nil {
		return nil, errors.Wrap(err, ErrPGQuery)
	}
	defer rows.Close()

	var out []*SealedVoteRecord
	for rows.Next() {
		rec, err := p.scanSealedVote(rows)
		if err != nil {
			return nil, errors.Wrap(err, ErrPGDecode)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, ErrPGQuery)
	}
	return out, nil
}

func (p *PG) MarkVoteCounted(voterID, electionID string) error {
	res, err := p.db.Exec(
		`UPDATE sealed_votes SET is_counted = true WHERE voter_id = $1 AND election_id = $2`,
		voterID, electionID,
	)
	if err != nil {
		return errors.Wrap(err, ErrPGQuery)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(votecrypt.ErrNotFound, "no sealed vote for voter %q in election %q", voterID, electionID)
	}
	return nil
}

func (p *PG) RecordEvent(ev AuditEvent) error {
	details, err := json.Marshal(ev.Details)
	if err != nil {
		return errors.Wrap(err, ErrPGAuditNA)
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = p.db.Exec(
		`INSERT INTO audit_log (actor_id, event_type, ip_address, user_agent, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ActorID, ev.EventType, ev.IPAddress, ev.UserAgent, string(details), at,
	)
	if err != nil {
		return errors.Wrap(err, ErrPGAuditNA)
	}
	return nil
}
