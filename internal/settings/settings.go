// Package settings serves the checkout pricing constants and reloads them
// from an optional YAML file while the server runs.
package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const reloadDebounce = 200 * time.Millisecond

// Store holds the current Pricing. Reads are lock-free.
type Store struct {
	current  atomic.Pointer[domain.Pricing]
	fallback domain.Pricing
	path     string
	logger   *zap.Logger
}

// fileFormat is the YAML layout. Amounts are strings so "40.00" keeps its scale.
type fileFormat struct {
	DeliveryFee   *string `yaml:"deliveryFee"`
	FlatDiscount  *string `yaml:"flatDiscount"`
	PaymentMethod *string `yaml:"paymentMethod"`
}

// New returns a Store seeded with fallback. When path is set the file is
// loaded immediately and its values override fallback field by field.
func New(fallback domain.Pricing, path string, logger *zap.Logger) (*Store, error) {
	s := &Store{fallback: fallback, path: path, logger: logging.OrNop(logger)}
	p := fallback
	s.current.Store(&p)
	if path == "" {
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Pricing returns a copy of the current constants.
func (s *Store) Pricing() domain.Pricing {
	return *s.current.Load()
}

// Reload re-reads the file. On error the previous values stay in place.
func (s *Store) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read pricing file: %w", err)
	}
	p, err := parse(raw, s.fallback)
	if err != nil {
		return fmt.Errorf("parse pricing file %s: %w", s.path, err)
	}
	s.current.Store(&p)
	s.logger.Info("pricing loaded",
		zap.String("path", s.path),
		zap.String("delivery_fee", p.DeliveryFee.String()),
		zap.String("flat_discount", p.FlatDiscount.String()),
		zap.String("payment_method", p.PaymentMethod),
	)
	return nil
}

func parse(raw []byte, base domain.Pricing) (domain.Pricing, error) {
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return domain.Pricing{}, err
	}
	out := base
	amount := func(field string, v *string, dst *decimal.Decimal) error {
		if v == nil {
			return nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(*v))
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative", field)
		}
		*dst = d
		return nil
	}
	if err := amount("deliveryFee", f.DeliveryFee, &out.DeliveryFee); err != nil {
		return domain.Pricing{}, err
	}
	if err := amount("flatDiscount", f.FlatDiscount, &out.FlatDiscount); err != nil {
		return domain.Pricing{}, err
	}
	if f.PaymentMethod != nil && strings.TrimSpace(*f.PaymentMethod) != "" {
		out.PaymentMethod = strings.TrimSpace(*f.PaymentMethod)
	}
	return out, nil
}

// Watch reloads the file whenever it changes until ctx is done. The parent
// directory is watched so editors that replace the file are handled.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		target := filepath.Clean(s.path)
		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				debounce = time.After(reloadDebounce)
			case <-debounce:
				debounce = nil
				if err := s.Reload(); err != nil {
					s.logger.Warn("pricing reload failed, keeping previous values", zap.Error(err))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("pricing watcher error", zap.Error(err))
			}
		}
	}()
	s.logger.Info("pricing watcher started", zap.String("path", s.path))
	return nil
}
