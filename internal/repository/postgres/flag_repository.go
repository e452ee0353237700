package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/netgraph/backend/internal/domain"
)

type FlagRepository struct {
	db *pgxpool.Pool
}

func NewFlagRepository(db *pgxpool.Pool) *FlagRepository {
	return &FlagRepository{db: db}
}

func (r *FlagRepository) CreateBatch(flags []*domain.Flag) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, flag := range flags {
		batch.Queue(`
			INSERT INTO flags (flag_id, subject_id, rule_id, score, parameter, create_date, create_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, flag.FlagID, flag.SubjectID, flag.RuleID, flag.Score, flag.Parameter, flag.CreateDate, flag.CreateBy)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

func (r *FlagRepository) ExistsFlagID(flagID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM flags WHERE flag_id = $1)`, flagID).Scan(&exists)
	return exists, err
}

func (r *FlagRepository) FindFlagIDsBySubject(subjectID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT flag_id FROM flags WHERE subject_id = $1`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flagIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		flagIDs = append(flagIDs, id)
	}
	return flagIDs, rows.Err()
}

func (r *FlagRepository) GetByFlagIDs(flagIDs []string) ([]*domain.Flag, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, flag_id, subject_id, rule_id, score, parameter, create_date, create_by
		FROM flags
		WHERE flag_id = ANY($1)
		ORDER BY flag_id, id
	`, flagIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flags []*domain.Flag
	for rows.Next() {
		flag := &domain.Flag{}
		err := rows.Scan(
			&flag.ID,
			&flag.FlagID,
			&flag.SubjectID,
			&flag.RuleID,
			&flag.Score,
			&flag.Parameter,
			&flag.CreateDate,
			&flag.CreateBy,
		)
		if err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}
	return flags, rows.Err()
}

func (r *FlagRepository) DeleteByFlagID(flagID string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM flags WHERE flag_id = $1`, flagID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
