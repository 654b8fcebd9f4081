package repository

import (
	"errors"
	"testing"

	"github.com/afzalm/cclms/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRun renders postgres SQL without a server.
func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=lms dbname=lms sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestLikePattern(t *testing.T) {
	cases := map[string]string{
		"ann":        `%ann%`,
		"  ann  ":    `%ann%`,
		`50%_off\`:   `%50\%\_off\\%`,
		"snake_case": `%snake\_case%`,
	}
	for in, want := range cases {
		assert.Equal(t, want, likePattern(in), in)
	}
}

func TestConditional(t *testing.T) {
	boom := errors.New("connection reset")
	count := func(n int64, err error) func() (int64, error) {
		return func() (int64, error) { return n, err }
	}
	unused := func() (int64, error) {
		t.Fatal("count must not run")
		return 0, nil
	}

	assert.ErrorIs(t, conditional(&gorm.DB{Error: boom}, unused), boom)
	assert.NoError(t, conditional(&gorm.DB{RowsAffected: 1}, unused))
	assert.ErrorIs(t, conditional(&gorm.DB{}, count(0, nil)), ErrNotFound)
	assert.ErrorIs(t, conditional(&gorm.DB{}, count(1, nil)), ErrStaleState)
	assert.ErrorIs(t, conditional(&gorm.DB{}, count(0, boom)), boom)
}

func TestSearchGroupsAlternatives(t *testing.T) {
	db := dryRun(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.User{}).Scopes(userFilter(UserFilter{Role: "ADMIN", Search: "ann"})).Find(&[]models.User{})
	})
	assert.Contains(t, sql, `FROM "users"`)
	assert.Contains(t, sql, `role = 'ADMIN'`)
	assert.Contains(t, sql, `(email ILIKE '%ann%' OR name ILIKE '%ann%')`)

	sql = db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Report{}).Scopes(reportFilter(ReportFilter{Status: "PENDING", Search: "spam"})).Find(&[]models.Report{})
	})
	assert.Contains(t, sql, `status = 'PENDING' AND (reason ILIKE '%spam%' OR content_id ILIKE '%spam%')`)
}

func TestTicketFilterSQL(t *testing.T) {
	db := dryRun(t)
	render := func(f TicketFilter) string {
		return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			return tx.Model(&models.SupportTicket{}).Scopes(ticketFilter(f)).Find(&[]models.SupportTicket{})
		})
	}

	sql := render(TicketFilter{Status: "OPEN", Unassigned: true, Search: "login"})
	assert.Contains(t, sql, `FROM "support_tickets"`)
	assert.Contains(t, sql, `status = 'OPEN'`)
	assert.Contains(t, sql, `assignee_id IS NULL`)
	assert.Contains(t, sql, `subject ILIKE '%login%'`)

	me := uuid.New()
	sql = render(TicketFilter{AssignedTo: &me, Priority: "HIGH", Category: "billing"})
	assert.Contains(t, sql, `assignee_id = '`+me.String()+`'`)
	assert.Contains(t, sql, `priority = 'HIGH'`)
	assert.Contains(t, sql, `category = 'billing'`)
	assert.NotContains(t, sql, "IS NULL")
	assert.NotContains(t, sql, "ILIKE")

	assert.NotContains(t, render(TicketFilter{}), "WHERE")
}

func TestCountQuerySQL(t *testing.T) {
	db := dryRun(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []struct {
			Key   string
			Count int64
		}
		return countQuery(tx, &models.SupportTicket{}, "status").Find(&rows)
	})
	assert.Contains(t, sql, `SELECT status AS key, COUNT(*) AS count FROM "support_tickets"`)
	assert.Contains(t, sql, `GROUP BY "status"`)
}
