package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stokhub/internal/apperrors"
	"stokhub/internal/model"
)

// StokHareketRepository is a read-only view over the stock-movement
// table. The watcher's incremental reads and the hub's recent-movement
// queries go through here; nothing writes.
type StokHareketRepository struct {
	db *pgxpool.Pool
}

func NewStokHareketRepository(db *pgxpool.Pool) *StokHareketRepository {
	return &StokHareketRepository{
		db: db,
	}
}

const movementColumns = `
		id, stok_id, iliskili_stok_id, hareket_tip_id, belge_id, belge_kodu,
		belge_tarihi, miktar, birim_id, birim_carpan, birim_fiyati, depo_id,
		kdv_tutari, indirim_tutari, toplam_tutar, masraf_merkezi_id, aciklama,
		create_date, create_user_id, change_date, change_user_id`

// SelectChanged returns rows newer than the watermark, ascending by id.
// The dual predicate is load-bearing: an in-place update keeps its id, so
// only the change_date path catches it, while a fresh insert is caught by
// the id path before its change_date is ever set.
func (r *StokHareketRepository) SelectChanged(
	ctx context.Context,
	ext RepoExtension,
	lastID int64,
	lastChange time.Time,
	batchSize int,
) ([]model.StokHareket, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT` + movementColumns + `
		FROM stok.hareketler
		WHERE id > $1
		   OR (change_date IS NOT NULL AND change_date > $2)
		ORDER BY id
		LIMIT $3;
	`

	rows, err := ext.Query(ctx, query, lastID, lastChange, batchSize)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	return scanMovements(rows)
}

func (r *StokHareketRepository) SelectByID(ctx context.Context, ext RepoExtension, id int64) (*model.StokHareket, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT` + movementColumns + `
		FROM stok.hareketler
		WHERE id = $1;
	`

	rows, err := ext.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	movements, err := scanMovements(rows)
	if err != nil {
		return nil, err
	}

	if len(movements) == 0 {
		return nil, apperrors.ErrMovementDoesNotExist
	}

	return &movements[0], nil
}

// SelectRecent lists the latest movements, newest first. A nil scope
// list lifts the restriction entirely; any other list still admits rows
// without a cost center, mirroring the push fan-out policy.
func (r *StokHareketRepository) SelectRecent(
	ctx context.Context,
	ext RepoExtension,
	count int,
	subeIDs []int64,
) ([]model.StokHareket, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT` + movementColumns + `
		FROM stok.hareketler
		WHERE $2::bigint[] IS NULL
		   OR masraf_merkezi_id IS NULL
		   OR masraf_merkezi_id = ANY($2::bigint[])
		ORDER BY id DESC
		LIMIT $1;
	`

	rows, err := ext.Query(ctx, query, count, subeIDs)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]model.StokHareket, error) {
	var movements []model.StokHareket

	for rows.Next() {
		var m model.StokHareket

		if err := rows.Scan(
			&m.ID,
			&m.StokID,
			&m.IliskiliStokID,
			&m.HareketTipID,
			&m.BelgeID,
			&m.BelgeKodu,
			&m.BelgeTarihi,
			&m.Miktar,
			&m.BirimID,
			&m.BirimCarpan,
			&m.BirimFiyati,
			&m.DepoID,
			&m.KdvTutari,
			&m.IndirimTutari,
			&m.ToplamTutar,
			&m.MasrafMerkeziID,
			&m.Aciklama,
			&m.CreateDate,
			&m.CreateUserID,
			&m.ChangeDate,
			&m.ChangeUserID,
		); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.ErrMovementDoesNotExist
			}

			return nil, err
		}

		movements = append(movements, m)
	}

	return movements, rows.Err()
}
