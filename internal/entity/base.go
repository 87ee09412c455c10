package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base общие поля сущности. Временные метки выставляет только хранилище.
type Base struct {
	id        uuid.UUID
	createdAt time.Time
	updatedAt *time.Time
}

func newBase() Base {
	return Base{id: uuid.New()}
}

func (b *Base) ID() uuid.UUID {
	return b.id
}

func (b *Base) CreatedAt() time.Time {
	return b.createdAt
}

// UpdatedAt возвращает nil, пока сущность ни разу не обновлялась.
func (b *Base) UpdatedAt() *time.Time {
	if b.updatedAt == nil {
		return nil
	}
	t := *b.updatedAt
	return &t
}

// RecordCreation вызывается хранилищем при первом сохранении.
// CreatedAt выставляется один раз, повторные вызовы ничего не меняют.
func (b *Base) RecordCreation(at time.Time) {
	if !b.createdAt.IsZero() {
		return
	}
	b.createdAt = at
}

// RecordUpdate вызывается хранилищем при каждом последующем сохранении.
func (b *Base) RecordUpdate(at time.Time) {
	b.updatedAt = &at
}
