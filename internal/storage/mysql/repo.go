package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"skardu_hotels/internal/domain"
)

// nullable stores empty strings as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertHotels writes all hotels in one transaction, keyed by Hotel.Key().
func (r *Repo) UpsertHotels(ctx context.Context, hs []domain.Hotel) (err error) {
	if len(hs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertHotelSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, h := range hs {
		args, err := hotelArgs(h)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert %s: %w", h.Key(), err)
		}
	}
	return tx.Commit()
}

func hotelArgs(h domain.Hotel) ([]any, error) {
	amen, err := json.Marshal(orEmpty(h.Amenities))
	if err != nil {
		return nil, fmt.Errorf("encode amenities: %w", err)
	}
	imgs, err := json.Marshal(orEmpty(h.Images))
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}
	c, p := h.ContactInfo, h.PriceRange
	return []any{
		h.Key(), h.ID, h.Name, nullable(h.Description), h.StarRating,
		nullable(c.Phone), nullable(c.Email), nullable(c.Website), nullable(c.Address), c.City, nullable(c.Region),
		p.MinPrice, p.MaxPrice, p.Currency, p.PricePerNight,
		string(amen), string(imgs), h.Source, h.ScrapedAt,
	}, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type scanner interface{ Scan(dest ...any) error }

func scanHotel(s scanner) (domain.Hotel, error) {
	var (
		h                     domain.Hotel
		key                   string
		desc, phone, email    sql.NullString
		website, addr, region sql.NullString
		amen, imgs            []byte
	)
	if err := s.Scan(
		&key, &h.ID, &h.Name, &desc, &h.StarRating,
		&phone, &email, &website, &addr, &h.ContactInfo.City, &region,
		&h.PriceRange.MinPrice, &h.PriceRange.MaxPrice, &h.PriceRange.Currency, &h.PriceRange.PricePerNight,
		&amen, &imgs, &h.Source, &h.ScrapedAt,
	); err != nil {
		return domain.Hotel{}, err
	}
	h.Description = desc.String
	h.ContactInfo.Phone = phone.String
	h.ContactInfo.Email = email.String
	h.ContactInfo.Website = website.String
	h.ContactInfo.Address = addr.String
	h.ContactInfo.Region = region.String

	if err := json.Unmarshal(amen, &h.Amenities); err != nil {
		return domain.Hotel{}, fmt.Errorf("decode amenities of %s: %w", key, err)
	}
	if err := json.Unmarshal(imgs, &h.Images); err != nil {
		return domain.Hotel{}, fmt.Errorf("decode images of %s: %w", key, err)
	}
	return h, nil
}

func (r *Repo) GetHotel(ctx context.Context, key string) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, key))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, err
}

func (r *Repo) ListHotels(ctx context.Context, q domain.HotelsQuery) ([]domain.Hotel, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listHotelsSQL, q.City, q.City, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Hotel{}
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
