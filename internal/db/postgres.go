package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anhanga/fincrime-engine/internal/heuristics"
	"github.com/anhanga/fincrime-engine/internal/infra"
	"github.com/anhanga/fincrime-engine/internal/pipeline"
	"github.com/anhanga/fincrime-engine/pkg/models"
)

// schemaSQL is compiled into the binary at build time so schema init works
// inside the runtime image without shipping the .sql file alongside it.
//
//go:embed schema.sql
var schemaSQL string

// CaseStore persists investigation output: entities, infrastructure
// records and forensic relations. No-duplicate semantics are enforced in
// SQL (unique keys + ON CONFLICT DO NOTHING), so concurrent runs never
// need application-level locking here.
type CaseStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx.
func Connect(connStr string) (*CaseStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for the case database")
	return &CaseStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *CaseStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema executes the embedded schema DDL.
func (s *CaseStore) InitSchema() error {
	if _, err := s.pool.Exec(context.Background(), schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}
	log.Println("Case database schema initialized")
	return nil
}

// AddEntity inserts an entity unless one with the same document exists.
// Reports whether a new row was written.
func (s *CaseStore) AddEntity(ctx context.Context, name, document, role string) (bool, error) {
	tag, err := s.pool.Exec(ctx, insertEntitySQL, name, document, role)
	if err != nil {
		return false, fmt.Errorf("failed to insert entity: %v", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AddRelation links two case nodes unless the link already exists.
func (s *CaseStore) AddRelation(ctx context.Context, source, target, relType string) error {
	if _, err := s.pool.Exec(ctx, insertRelationSQL, source, target, relType); err != nil {
		return fmt.Errorf("failed to insert relation: %v", err)
	}
	return nil
}

const (
	insertEntitySQL = `
		INSERT INTO case_entities (name, document, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (document) DO NOTHING;
	`
	insertRelationSQL = `
		INSERT INTO case_relations (source, target, rel_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (source, target) DO NOTHING;
	`
	insertInfraSQL = `
		INSERT INTO case_infra (domain, ip, protection, favicon_hash, shodan_pivot, info)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (domain) DO NOTHING;
	`
)

// SaveInvestigation persists everything a finished run produced: the raw
// state snapshot, beneficiary and wallet entities, the infra record, and
// the relations tying them to the target domain. One transaction.
func (s *CaseStore) SaveInvestigation(ctx context.Context, caseID string, st *pipeline.InvestigationState, hunt *infra.HuntResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stateJSON, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to serialize state: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO investigation_runs (case_id, target, status, protection, risk_score, state_json)
		VALUES ($1, $2, $3, $4, $5, $6);
	`, caseID, st.Target, string(st.Status), string(st.ProtectionType), st.FinancialIntel.RiskScore, stateJSON)
	if err != nil {
		return fmt.Errorf("failed to insert run: %v", err)
	}

	domain := heuristics.NormalizeHost(st.Target)

	// Beneficiaries are keyed by PIX key when present, by name otherwise.
	for _, pix := range st.FinancialIntel.PixData {
		if pix.BeneficiaryName == "" {
			continue
		}
		document := pix.PixKey
		if document == "" {
			document = pix.BeneficiaryName
		}
		if err := insertTx(ctx, tx, insertEntitySQL, pix.BeneficiaryName, document, "Recebedor"); err != nil {
			return err
		}
		if err := insertTx(ctx, tx, insertRelationSQL, domain, document, "pays_to"); err != nil {
			return err
		}
	}

	for _, wallet := range st.FinancialIntel.CryptoData {
		if err := insertTx(ctx, tx, insertEntitySQL, wallet.Coin+" wallet", wallet.Address, "Crypto Deposit"); err != nil {
			return err
		}
		if err := insertTx(ctx, tx, insertRelationSQL, domain, wallet.Address, "deposits_to"); err != nil {
			return err
		}
	}

	rec := models.InfraRecord{Domain: domain, IP: "Pending", Protection: string(st.ProtectionType)}
	if hunt != nil {
		if hunt.IP != "" {
			rec.IP = hunt.IP
		}
		rec.FaviconHash = hunt.FaviconHash
		rec.ShodanPivot = hunt.ShodanPivot
		if len(hunt.Subdomains) > 0 {
			subsJSON, _ := json.Marshal(hunt.Subdomains)
			rec.Info = string(subsJSON)
		}
	}
	if err := insertTx(ctx, tx, insertInfraSQL, rec.Domain, rec.IP, rec.Protection, rec.FaviconHash, rec.ShodanPivot, rec.Info); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertTx(ctx context.Context, tx pgx.Tx, sql string, args ...any) error {
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("case insert failed: %v", err)
	}
	return nil
}

// FullCase is the aggregate case document handed to the reporter.
type FullCase struct {
	Entities  []models.CaseEntity   `json:"entities"`
	Infra     []models.InfraRecord  `json:"infra"`
	Relations []models.CaseRelation `json:"relations"`
}

// GetFullCase loads the complete case document.
func (s *CaseStore) GetFullCase(ctx context.Context) (*FullCase, error) {
	full := &FullCase{}

	entityRows, err := s.pool.Query(ctx, `SELECT name, document, role, created_at FROM case_entities ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %v", err)
	}
	for entityRows.Next() {
		var e models.CaseEntity
		if err := entityRows.Scan(&e.Name, &e.Document, &e.Role, &e.Timestamp); err != nil {
			entityRows.Close()
			return nil, err
		}
		full.Entities = append(full.Entities, e)
	}
	entityRows.Close()

	infraRows, err := s.pool.Query(ctx, `SELECT domain, ip, protection, COALESCE(favicon_hash, 0), shodan_pivot, info, created_at FROM case_infra ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query infra: %v", err)
	}
	for infraRows.Next() {
		var r models.InfraRecord
		if err := infraRows.Scan(&r.Domain, &r.IP, &r.Protection, &r.FaviconHash, &r.ShodanPivot, &r.Info, &r.Timestamp); err != nil {
			infraRows.Close()
			return nil, err
		}
		full.Infra = append(full.Infra, r)
	}
	infraRows.Close()

	relationRows, err := s.pool.Query(ctx, `SELECT source, target, rel_type, created_at FROM case_relations ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query relations: %v", err)
	}
	defer relationRows.Close()
	for relationRows.Next() {
		var r models.CaseRelation
		if err := relationRows.Scan(&r.Source, &r.Target, &r.Type, &r.Timestamp); err != nil {
			return nil, err
		}
		full.Relations = append(full.Relations, r)
	}

	return full, nil
}
