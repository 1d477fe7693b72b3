package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StokHareket maps one row of the stock-movement transaction table.
// The table has no deletion tracking; rows are only ever inserted or
// updated in place, with CreateDate/ChangeDate as the audit fields the
// watcher keys its incremental reads on.
type StokHareket struct {
	ID int64 `db:"id" json:"id"`

	StokID         int64  `db:"stok_id" json:"stokId"`
	IliskiliStokID *int64 `db:"iliskili_stok_id" json:"iliskiliStokId,omitempty"`

	HareketTipID int64     `db:"hareket_tip_id" json:"hareketTipId"`
	BelgeID      int64     `db:"belge_id" json:"belgeId"`
	BelgeKodu    string    `db:"belge_kodu" json:"belgeKodu"`
	BelgeTarihi  time.Time `db:"belge_tarihi" json:"belgeTarihi"`

	Miktar      decimal.Decimal `db:"miktar" json:"miktar"`
	BirimID     int64           `db:"birim_id" json:"birimId"`
	BirimCarpan decimal.Decimal `db:"birim_carpan" json:"birimCarpan"`
	BirimFiyati decimal.Decimal `db:"birim_fiyati" json:"birimFiyati"`

	DepoID          int64           `db:"depo_id" json:"depoId"`
	KdvTutari       decimal.Decimal `db:"kdv_tutari" json:"kdvTutari"`
	IndirimTutari   decimal.Decimal `db:"indirim_tutari" json:"indirimTutari"`
	ToplamTutar     decimal.Decimal `db:"toplam_tutar" json:"toplamTutar"`
	MasrafMerkeziID *int64          `db:"masraf_merkezi_id" json:"masrafMerkeziId,omitempty"`

	Aciklama string `db:"aciklama" json:"aciklama"`

	// Audit fields. ChangeDate, when set, is never before CreateDate.
	CreateDate   time.Time  `db:"create_date" json:"createDate"`
	CreateUserID int64      `db:"create_user_id" json:"createUserId"`
	ChangeDate   *time.Time `db:"change_date" json:"changeDate,omitempty"`
	ChangeUserID *int64     `db:"change_user_id" json:"changeUserId,omitempty"`
}

// TenantID returns the cost-center scoping the row's visibility.
// Zero means the row is not scoped to any tenant.
func (s *StokHareket) TenantID() int64 {
	if s.MasrafMerkeziID == nil {
		return 0
	}

	return *s.MasrafMerkeziID
}
