package app

import (
	"context"
	"sort"
	"strings"

	"pms_sync/internal/domain"
)

// PMS is implemented once per Property Management System vendor.
type PMS interface {
	// Name is the lower-case vendor name used in webhook URLs.
	Name() string

	// NormalizePayload decodes a raw webhook body and collapses duplicate
	// events so each reservation id appears once.
	NormalizePayload(body []byte) (domain.WebhookPayload, error)

	// HandleWebhook reconciles every event in order. The first fatal error
	// aborts the remaining events.
	HandleWebhook(ctx context.Context, p domain.WebhookPayload) error

	// UpdateTomorrowsStays reconciles every reservation checking in tomorrow.
	UpdateTomorrowsStays(ctx context.Context) error

	// StayHasBreakfast asks the vendor whether breakfast is included.
	// A nil result means the answer is unknown.
	StayHasBreakfast(ctx context.Context, s domain.Stay) *bool
}

type Registry struct {
	adapters map[string]PMS
}

func NewRegistry(adapters ...PMS) *Registry {
	r := &Registry{adapters: make(map[string]PMS, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

func (r *Registry) Register(p PMS) {
	r.adapters[normalizeName(p.Name())] = p
}

// Resolve returns false for unregistered vendors.
func (r *Registry) Resolve(name string) (PMS, bool) {
	p, ok := r.adapters[normalizeName(name)]
	return p, ok
}

// All returns the registered adapters ordered by name.
func (r *Registry) All() []PMS {
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]PMS, 0, len(names))
	for _, n := range names {
		out = append(out, r.adapters[n])
	}
	return out
}

func normalizeName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
