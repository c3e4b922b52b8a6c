package company_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

func mustName(t *testing.T, raw string) company.Name {
	t.Helper()
	r := company.NewName(raw)
	require.True(t, r.IsSuccess(), "name %q: %v", raw, r.Err())
	return r.Value()
}

func mustCode(t *testing.T, raw string) company.Code {
	t.Helper()
	r := company.NewCode(raw)
	require.True(t, r.IsSuccess(), "code %q: %v", raw, r.Err())
	return r.Value()
}

func newCompany(t *testing.T) *company.Company {
	t.Helper()
	r := company.New(mustName(t, "Acme"), mustCode(t, "ACME"), event.NewMetadata("user-1", "corr-1", ""))
	require.True(t, r.IsSuccess())
	return r.Value()
}

func TestNewName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid", input: "Acme", want: "Acme"},
		{name: "trims spaces", input: "  Acme Corp  ", want: "Acme Corp"},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "too long", input: strings.Repeat("a", company.MaxNameLength+1), wantErr: true},
		{name: "max length multibyte", input: strings.Repeat("ж", company.MaxNameLength), want: strings.Repeat("ж", company.MaxNameLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := company.NewName(tt.input)

			if tt.wantErr {
				var vErr *errs.ValidationError
				require.ErrorAs(t, r.Err(), &vErr)
				assert.Equal(t, "name", vErr.Field)
				assert.Equal(t, tt.input, vErr.Value)
				return
			}
			require.True(t, r.IsSuccess())
			assert.Equal(t, tt.want, r.Value().String())
		})
	}
}

func TestNewCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid", input: "ACME", want: "ACME"},
		{name: "upper-cases", input: " acme-01 ", want: "ACME-01"},
		{name: "underscore", input: "AC_ME", want: "AC_ME"},
		{name: "empty", input: "", wantErr: true},
		{name: "too short", input: "A", wantErr: true},
		{name: "too long", input: strings.Repeat("A", company.MaxCodeLength+1), wantErr: true},
		{name: "invalid characters", input: "AC ME", wantErr: true},
		{name: "leading dash", input: "-ACME", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := company.NewCode(tt.input)

			if tt.wantErr {
				var vErr *errs.ValidationError
				require.ErrorAs(t, r.Err(), &vErr)
				assert.Equal(t, "code", vErr.Field)
				return
			}
			require.True(t, r.IsSuccess())
			assert.Equal(t, tt.want, r.Value().String())
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("records created event", func(t *testing.T) {
		c := newCompany(t)

		assert.False(t, c.ID().IsZero())
		assert.Equal(t, "Acme", c.Name().String())
		assert.Equal(t, "ACME", c.Code().String())
		assert.True(t, c.IsActive())
		assert.Equal(t, 1, c.Version())

		events := c.PendingEvents()
		require.Len(t, events, 1)
		created, ok := events[0].(*company.Created)
		require.True(t, ok)
		assert.Equal(t, company.EventTypeCreated, created.EventType())
		assert.Equal(t, c.ID().String(), created.AggregateID())
		assert.Equal(t, company.AggregateType, created.AggregateType())
		assert.Equal(t, "Acme", created.Name)
		assert.Equal(t, "ACME", created.Code)
		assert.Equal(t, 1, created.Version())
		assert.Equal(t, "corr-1", created.Metadata().CorrelationID)
	})

	t.Run("rejects zero value objects", func(t *testing.T) {
		r := company.New(company.Name{}, mustCode(t, "ACME"), event.Metadata{})
		assert.Equal(t, errs.KindValidation, errs.KindOf(r.Err()))

		r = company.New(mustName(t, "Acme"), company.Code{}, event.Metadata{})
		assert.Equal(t, errs.KindValidation, errs.KindOf(r.Err()))
	})
}

func TestCompany_TwoMutationsBufferTwoEventsInOrder(t *testing.T) {
	c := newCompany(t)
	c.ClearPending()

	require.NoError(t, c.Rename(mustName(t, "Acme Corp"), event.Metadata{}))
	require.NoError(t, c.Deactivate(event.Metadata{}))

	events := c.PendingEvents()
	require.Len(t, events, 2)
	assert.Equal(t, company.EventTypeRenamed, events[0].EventType())
	assert.Equal(t, company.EventTypeDeactivated, events[1].EventType())
	assert.Equal(t, 2, events[0].Version())
	assert.Equal(t, 3, events[1].Version())
	assert.Equal(t, 3, c.Version())

	renamed := events[0].(*company.Renamed)
	assert.Equal(t, "Acme", renamed.OldName)
	assert.Equal(t, "Acme Corp", renamed.NewName)
}

func TestCompany_Rename(t *testing.T) {
	t.Run("same name is a no-op", func(t *testing.T) {
		c := newCompany(t)
		c.ClearPending()

		require.NoError(t, c.Rename(mustName(t, "Acme"), event.Metadata{}))
		assert.Empty(t, c.PendingEvents())
		assert.Equal(t, 1, c.Version())
	})

	t.Run("inactive company", func(t *testing.T) {
		c := newCompany(t)
		require.NoError(t, c.Deactivate(event.Metadata{}))

		err := c.Rename(mustName(t, "Other"), event.Metadata{})
		assert.ErrorIs(t, err, errs.ErrInvalidState)
	})

	t.Run("zero name", func(t *testing.T) {
		c := newCompany(t)
		assert.ErrorIs(t, c.Rename(company.Name{}, event.Metadata{}), errs.ErrInvalidInput)
	})
}

func TestCompany_DeactivateTwice(t *testing.T) {
	c := newCompany(t)
	require.NoError(t, c.Deactivate(event.Metadata{}))

	err := c.Deactivate(event.Metadata{})
	assert.Equal(t, errs.KindInvalidState, errs.KindOf(err))
	assert.Len(t, c.PendingEvents(), 2)
}

func TestReconstruct_HasNoPendingEvents(t *testing.T) {
	id := uuid.NewUUID()
	c := company.Reconstruct(id, "Acme", "ACME", false, c0(), c0(), 4)

	assert.Equal(t, id, c.ID())
	assert.False(t, c.IsActive())
	assert.Equal(t, 4, c.Version())
	assert.Empty(t, c.PendingEvents())
}

func TestConflictErrors(t *testing.T) {
	codeErr := company.NewCodeExistError(mustCode(t, "ACME"))
	assert.Equal(t, "ACME", codeErr.Code)
	assert.Equal(t, errs.KindConflict, codeErr.Kind())
	assert.ErrorIs(t, codeErr, errs.ErrAlreadyExists)

	nameErr := company.NewNameExistError(mustName(t, "Acme"))
	assert.Equal(t, "Acme", nameErr.Name)
	assert.Contains(t, nameErr.Error(), "Acme")
}

func c0() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

func TestRegisterEvents_DecodesEnvelope(t *testing.T) {
	registry := event.NewRegistry()
	company.RegisterEvents(registry)

	c := newCompany(t)
	env, err := event.NewEnvelope(c.PendingEvents()[0])
	require.NoError(t, err)

	decoded, err := registry.Decode(env)
	require.NoError(t, err)

	created, ok := decoded.(*company.Created)
	require.True(t, ok)
	assert.Equal(t, "ACME", created.Code)
	assert.Equal(t, c.ID().String(), created.AggregateID())
}
