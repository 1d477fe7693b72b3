package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventSchemaVersion is carried inside every relay message body so
// consumers can reject payloads they were not built for.
const EventSchemaVersion = "1.0"

type EventKind string

const (
	EventKindCreated EventKind = "created"
	EventKindUpdated EventKind = "updated"
)

// StokHareketEvent is the wire snapshot of a movement row published onto
// the relay. Created and Updated share the shape; the routing key carries
// the kind. Field names are the literal camelCase wire values and must not
// change without bumping EventSchemaVersion.
type StokHareketEvent struct {
	ID              int64           `json:"id"`
	StokID          int64           `json:"stokId"`
	BelgeKodu       string          `json:"belgeKodu"`
	BelgeTarihi     time.Time       `json:"belgeTarihi"`
	Miktar          decimal.Decimal `json:"miktar"`
	BirimFiyati     decimal.Decimal `json:"birimFiyati"`
	ToplamTutar     decimal.Decimal `json:"toplamTutar"`
	KdvTutari       decimal.Decimal `json:"kdvTutari"`
	Aciklama        string          `json:"aciklama"`
	DepoID          int64           `json:"depoId"`
	MasrafMerkeziID *int64          `json:"masrafMerkeziId,omitempty"`
	CreateUserID    int64           `json:"createUserId"`
	CreateDate      time.Time       `json:"createDate"`
	ChangeUserID    *int64          `json:"changeUserId,omitempty"`
	ChangeDate      *time.Time      `json:"changeDate,omitempty"`

	// EventTimestamp is publish time, not business time.
	EventTimestamp time.Time `json:"eventTimestamp"`
	Version        string    `json:"version"`
}

// NewStokHareketEvent snapshots a movement row for publishing.
func NewStokHareketEvent(rec *StokHareket, now time.Time) StokHareketEvent {
	return StokHareketEvent{
		ID:              rec.ID,
		StokID:          rec.StokID,
		BelgeKodu:       rec.BelgeKodu,
		BelgeTarihi:     rec.BelgeTarihi,
		Miktar:          rec.Miktar,
		BirimFiyati:     rec.BirimFiyati,
		ToplamTutar:     rec.ToplamTutar,
		KdvTutari:       rec.KdvTutari,
		Aciklama:        rec.Aciklama,
		DepoID:          rec.DepoID,
		MasrafMerkeziID: rec.MasrafMerkeziID,
		CreateUserID:    rec.CreateUserID,
		CreateDate:      rec.CreateDate,
		ChangeUserID:    rec.ChangeUserID,
		ChangeDate:      rec.ChangeDate,
		EventTimestamp:  now,
		Version:         EventSchemaVersion,
	}
}

// TenantID mirrors StokHareket.TenantID for the deserialized event.
func (e *StokHareketEvent) TenantID() int64 {
	if e.MasrafMerkeziID == nil {
		return 0
	}

	return *e.MasrafMerkeziID
}
