// Package faker is the seeded random value source shared by every generation stage.
//
// A Provider built with a non-zero seed and a fixed clock yields the same
// sequence of values on every run; seed 0 draws a random seed.
package faker

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/brianvoe/gofakeit/v7"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pythonsogood/dbms-nosql/models"
)

var (
	ErrEmptyCollection = errors.New("cannot pick from an empty collection")
	ErrInvalidRange    = errors.New("range lower bound is after upper bound")
)

// DefaultRecentWindow matches how far back a "recent" timestamp may lie.
const DefaultRecentWindow = 24 * time.Hour

var emailDomains = []string{"gmail.com", "yahoo.com", "hotmail.com"}

type Provider struct {
	f            *gofakeit.Faker
	now          time.Time
	recentWindow time.Duration
}

type Option func(*Provider)

// WithRecentWindow sets how far before now RecentDate may reach.
func WithRecentWindow(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.recentWindow = d
		}
	}
}

// New returns a Provider seeded with seed whose notion of "now" is fixed to now.
// Timestamps are kept at millisecond precision, the precision MongoDB stores.
func New(seed uint64, now time.Time, opts ...Option) *Provider {
	p := &Provider{
		f:            gofakeit.New(seed),
		now:          now.UTC().Truncate(time.Millisecond),
		recentWindow: DefaultRecentWindow,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Now is the upper bound of every generated timestamp.
func (p *Provider) Now() time.Time {
	return p.now
}

// IntBetween returns an int in [min, max].
func (p *Provider) IntBetween(min, max int) int {
	if min >= max {
		return min
	}
	return p.f.IntRange(min, max)
}

// Chance reports true with probability prob.
func (p *Provider) Chance(prob float64) bool {
	return p.f.Float64() < prob
}

// Pick returns a uniformly chosen element of items.
func Pick[T any](p *Provider, items []T) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, ErrEmptyCollection
	}
	return items[p.IntBetween(0, len(items)-1)], nil
}

// DateBetween returns a timestamp in [from, to] at millisecond precision.
func (p *Provider) DateBetween(from, to time.Time) (time.Time, error) {
	if from.After(to) {
		return time.Time{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, from.Format(time.RFC3339Nano), to.Format(time.RFC3339Nano))
	}
	lo := ceilMillis(from.UTC())
	hi := to.UTC().Truncate(time.Millisecond)
	if lo.After(hi) {
		// from and to share one millisecond
		return from.UTC(), nil
	}
	span := hi.Sub(lo).Milliseconds()
	offset := p.f.IntRange(0, int(span))
	return lo.Add(time.Duration(offset) * time.Millisecond), nil
}

// RecentDate returns a timestamp within the recent window before now.
func (p *Provider) RecentDate() time.Time {
	d, _ := p.DateBetween(p.now.Add(-p.recentWindow), p.now)
	return d
}

// ObjectID draws a document id from the seeded source instead of the process clock.
func (p *Provider) ObjectID() primitive.ObjectID {
	var id primitive.ObjectID
	copy(id[:], p.Bytes(len(id)))
	return id
}

// Bytes returns n pseudo-random bytes.
func (p *Provider) Bytes(n int) []byte {
	b := make([]byte, 0, n+3)
	for len(b) < n {
		v := p.f.Uint32()
		b = append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	return b[:n]
}

func (p *Provider) FirstName() string { return p.f.FirstName() }
func (p *Provider) LastName() string  { return p.f.LastName() }

// Email builds a mailbox from the person's name on a free-mail domain.
func (p *Provider) Email(first, last string) string {
	sep, _ := Pick(p, []string{".", "_", ""})
	local := mailboxPart(first) + sep + mailboxPart(last)
	if p.Chance(0.5) {
		local += strconv.Itoa(p.IntBetween(1, 99))
	}
	domain, _ := Pick(p, emailDomains)
	return local + "@" + domain
}

// Phone returns an international-style number, e.g. "+44 6136459948".
func (p *Provider) Phone() string {
	return fmt.Sprintf("+%d %s", p.IntBetween(1, 99), p.f.Phone())
}

func (p *Provider) Country() string    { return p.f.Country() }
func (p *Provider) City() string       { return p.f.City() }
func (p *Provider) Street() string     { return p.f.Street() }
func (p *Provider) PostalCode() string { return p.f.Zip() }

// Department returns a commerce department name for a category.
func (p *Provider) Department() string { return p.f.ProductCategory() }

func (p *Provider) ProductName() string        { return p.f.ProductName() }
func (p *Provider) ProductDescription() string { return p.f.ProductDescription() }

// Price returns an amount in [min, max] with two fraction digits, never below one cent.
func (p *Provider) Price(min, max float64) models.Money {
	m := models.NewMoney(p.f.Price(min, max))
	if !m.IsPositive() {
		return models.NewMoney(0.01)
	}
	return m
}

// SKU returns a stock keeping unit shaped like "ABC-1234".
func (p *Provider) SKU() string {
	return strings.ToUpper(p.f.LetterN(3)) + "-" + strconv.Itoa(p.IntBetween(1000, 9999))
}

// ImageURL returns a placeholder image location.
func (p *Provider) ImageURL() string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/640/480", p.f.LetterN(10))
}

// Password returns a plaintext password; callers must hash it before storing anything.
func (p *Provider) Password() string {
	return p.f.Password(true, true, true, true, false, 12)
}

// Sentences returns n lorem sentences separated by spaces.
func (p *Provider) Sentences(n int) string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, p.f.Sentence(p.IntBetween(4, 12)))
	}
	return strings.Join(out, " ")
}

func ceilMillis(t time.Time) time.Time {
	floor := t.Truncate(time.Millisecond)
	if floor.Equal(t) {
		return t
	}
	return floor.Add(time.Millisecond)
}

func mailboxPart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
