package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/uptrace/bun"

	"github.com/orbitalops/launchdash/internal/models"
)

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("entity not found")

// PageRequest describes one page of a listing.
type PageRequest struct {
	Page int
	Size int
}

// LaunchFilter narrows a launch listing. Year takes precedence over Success
// when both are set.
type LaunchFilter struct {
	Year    *int
	Success *bool
}

// Page is one page of results plus the pagination envelope.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int64 `json:"totalPages"`
}

// Store is the transactional entity store consumed by the sync pipeline and
// the statistics engine.
//
// SaveRocket and SaveLaunchPad have save-if-absent semantics: a concurrent
// save for the same id never errors, the row that got there first wins.
// UpsertLaunch replaces the launch row and its entire owned payload set in a
// single unit of work.
type Store interface {
	FindRocket(ctx context.Context, id string) (*models.Rocket, error)
	FindLaunchPad(ctx context.Context, id string) (*models.LaunchPad, error)
	FindLaunch(ctx context.Context, id string) (*models.Launch, error)

	SaveRocket(ctx context.Context, rocket *models.Rocket) error
	SaveLaunchPad(ctx context.Context, pad *models.LaunchPad) error
	UpsertLaunch(ctx context.Context, launch *models.Launch) error

	CountLaunches(ctx context.Context) (int64, error)
	CountSuccessfulLaunches(ctx context.Context) (int64, error)
	CountLaunchesBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountSuccessfulLaunchesBetween(ctx context.Context, from, to time.Time) (int64, error)
	LaunchYears(ctx context.Context) ([]int, error)
	NextLaunchAfter(ctx context.Context, t time.Time) (*models.Launch, error)

	ListLaunches(ctx context.Context, filter LaunchFilter, page PageRequest) (*Page[*models.Launch], error)

	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// bunStore implements Store on a bun database handle.
type bunStore struct {
	db *bun.DB
}

// New creates a Store backed by db.
func New(db *bun.DB) Store {
	return &bunStore{db: db}
}

func (s *bunStore) FindRocket(ctx context.Context, id string) (*models.Rocket, error) {
	rocket := new(models.Rocket)
	err := s.db.NewSelect().Model(rocket).Where("r.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, wrapNotFound(err, "rocket", id)
	}
	return rocket, nil
}

func (s *bunStore) FindLaunchPad(ctx context.Context, id string) (*models.LaunchPad, error) {
	pad := new(models.LaunchPad)
	err := s.db.NewSelect().Model(pad).Where("lp.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, wrapNotFound(err, "launch pad", id)
	}
	return pad, nil
}

func (s *bunStore) FindLaunch(ctx context.Context, id string) (*models.Launch, error) {
	launch := new(models.Launch)
	err := s.db.NewSelect().
		Model(launch).
		Where("l.id = ?", id).
		Relation("Rocket").
		Relation("Pad").
		Relation("Payloads").
		Scan(ctx)
	if err != nil {
		return nil, wrapNotFound(err, "launch", id)
	}
	return launch, nil
}

// SaveRocket inserts the rocket unless a row with the same id already exists.
// Rocket content for a given id is externally immutable, so keeping the first
// writer's row is correct even under concurrent resolver invocations.
func (s *bunStore) SaveRocket(ctx context.Context, rocket *models.Rocket) error {
	_, err := s.db.NewInsert().
		Model(rocket).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save rocket %s: %w", rocket.ID, err)
	}
	return nil
}

// SaveLaunchPad inserts the pad unless a row with the same id already exists.
func (s *bunStore) SaveLaunchPad(ctx context.Context, pad *models.LaunchPad) error {
	_, err := s.db.NewInsert().
		Model(pad).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save launch pad %s: %w", pad.ID, err)
	}
	return nil
}

// UpsertLaunch writes the launch row by id and replaces its entire owned
// payload set (delete then reinsert) in one transaction. Re-processing the
// same external id therefore never creates a duplicate row, and stale payload
// rows from a conflicting in-flight write are replaced, not merged.
func (s *bunStore) UpsertLaunch(ctx context.Context, launch *models.Launch) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(launch).
			On("CONFLICT (id) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("date_utc = EXCLUDED.date_utc").
			Set("success = EXCLUDED.success").
			Set("details = EXCLUDED.details").
			Set("rocket_id = EXCLUDED.rocket_id").
			Set("launch_pad_id = EXCLUDED.launch_pad_id").
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*models.Payload)(nil)).
			Where("launch_id = ?", launch.ID).
			Exec(ctx); err != nil {
			return err
		}

		if len(launch.Payloads) == 0 {
			return nil
		}

		for _, p := range launch.Payloads {
			p.LaunchID = launch.ID
		}
		// Payload ids are global: a payload that moved between launches in a
		// conflicting write is stolen by the last writer rather than erroring.
		if _, err := tx.NewInsert().
			Model(&launch.Payloads).
			On("CONFLICT (id) DO UPDATE").
			Set("launch_id = EXCLUDED.launch_id").
			Set("name = EXCLUDED.name").
			Set("type = EXCLUDED.type").
			Set("mass_kg = EXCLUDED.mass_kg").
			Set("orbit = EXCLUDED.orbit").
			Set("customer = EXCLUDED.customer").
			Exec(ctx); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert launch %s: %w", launch.ID, err)
	}
	return nil
}

func (s *bunStore) CountLaunches(ctx context.Context) (int64, error) {
	count, err := s.db.NewSelect().Model((*models.Launch)(nil)).Count(ctx)
	return int64(count), err
}

func (s *bunStore) CountSuccessfulLaunches(ctx context.Context) (int64, error) {
	count, err := s.db.NewSelect().
		Model((*models.Launch)(nil)).
		Where("success = ?", true).
		Count(ctx)
	return int64(count), err
}

func (s *bunStore) CountLaunchesBetween(ctx context.Context, from, to time.Time) (int64, error) {
	count, err := s.db.NewSelect().
		Model((*models.Launch)(nil)).
		Where("date_utc >= ?", from).
		Where("date_utc <= ?", to).
		Count(ctx)
	return int64(count), err
}

func (s *bunStore) CountSuccessfulLaunchesBetween(ctx context.Context, from, to time.Time) (int64, error) {
	count, err := s.db.NewSelect().
		Model((*models.Launch)(nil)).
		Where("success = ?", true).
		Where("date_utc >= ?", from).
		Where("date_utc <= ?", to).
		Count(ctx)
	return int64(count), err
}

// LaunchYears returns the distinct calendar years (system time zone) that
// contain at least one launch, ascending. Year extraction happens in Go so
// the query stays portable across dialects.
func (s *bunStore) LaunchYears(ctx context.Context) ([]int, error) {
	var dates []time.Time
	err := s.db.NewSelect().
		Model((*models.Launch)(nil)).
		Column("date_utc").
		Scan(ctx, &dates)
	if err != nil {
		return nil, fmt.Errorf("failed to load launch dates: %w", err)
	}

	seen := make(map[int]bool)
	years := make([]int, 0)
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		year := d.In(time.Local).Year()
		if !seen[year] {
			seen[year] = true
			years = append(years, year)
		}
	}
	sort.Ints(years)
	return years, nil
}

// NextLaunchAfter returns the launch with the earliest timestamp strictly
// after t, or ErrNotFound when none exists.
func (s *bunStore) NextLaunchAfter(ctx context.Context, t time.Time) (*models.Launch, error) {
	launch := new(models.Launch)
	err := s.db.NewSelect().
		Model(launch).
		Where("l.date_utc > ?", t).
		OrderExpr("l.date_utc ASC").
		Limit(1).
		Relation("Rocket").
		Relation("Pad").
		Relation("Payloads").
		Scan(ctx)
	if err != nil {
		return nil, wrapNotFound(err, "launch after", t.Format(time.RFC3339))
	}
	return launch, nil
}

func (s *bunStore) ListLaunches(
	ctx context.Context, filter LaunchFilter, page PageRequest,
) (*Page[*models.Launch], error) {
	var launches []*models.Launch

	q := s.db.NewSelect().
		Model(&launches).
		Relation("Rocket").
		Relation("Pad").
		Relation("Payloads")

	if filter.Year != nil {
		from, to := YearRange(*filter.Year)
		q = q.Where("l.date_utc >= ?", from).Where("l.date_utc <= ?", to)
	} else if filter.Success != nil {
		q = q.Where("l.success = ?", *filter.Success)
	}

	total, err := q.
		OrderExpr("l.date_utc DESC").
		Limit(page.Size).
		Offset(page.Page * page.Size).
		ScanAndCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list launches: %w", err)
	}

	totalPages := int64(0)
	if page.Size > 0 {
		totalPages = (int64(total) + int64(page.Size) - 1) / int64(page.Size)
	}

	return &Page[*models.Launch]{
		Content:       launches,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: int64(total),
		TotalPages:    totalPages,
	}, nil
}

func (s *bunStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := new(models.User)
	err := s.db.NewSelect().Model(user).Where("email = ?", email).Scan(ctx)
	if err != nil {
		return nil, wrapNotFound(err, "user", email)
	}
	return user, nil
}

// SaveUser inserts the user unless the email is already taken (idempotent seeding).
func (s *bunStore) SaveUser(ctx context.Context, user *models.User) error {
	_, err := s.db.NewInsert().
		Model(user).
		On("CONFLICT (email) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.Email, err)
	}
	return nil
}

// YearRange returns the inclusive [Jan 1 00:00:00, Dec 31 23:59:59] bounds of
// a calendar year in the system time zone.
func YearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.Local)
	return from, to
}

func wrapNotFound(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("failed to find %s %s: %w", kind, id, err)
}
