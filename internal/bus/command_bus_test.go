package bus_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/bus"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/result"
)

type createThing struct {
	Name string
}

func (createThing) CommandName() string { return "thing.create" }

type deleteThing struct {
	ID string
}

func (deleteThing) CommandName() string { return "thing.delete" }

// impostor reuses createThing's name with a different Go type.
type impostor struct{}

func (impostor) CommandName() string { return "thing.create" }

type unnamed struct{}

func (unnamed) CommandName() string { return "" }

func TestDispatchCommand_NoHandler(t *testing.T) {
	b := bus.NewCommandBus()

	res := bus.DispatchCommand[string](context.Background(), b, createThing{Name: "a"})

	require.True(t, res.IsFailure())
	var noHandler *bus.NoHandlerRegisteredError
	require.ErrorAs(t, res.Err(), &noHandler)
	assert.Equal(t, "thing.create", noHandler.Name)
	assert.Equal(t, bus.KindCommand, noHandler.MessageKind)
	assert.Equal(t, errs.KindNoHandler, errs.KindOf(res.Err()))
}

func TestDispatchCommand_RoutesToRegisteredHandler(t *testing.T) {
	b := bus.NewCommandBus()

	var deleted []string
	require.NoError(t, bus.RegisterCommandHandler(b, func(_ context.Context, cmd createThing) result.Result[string] {
		return result.Ok("created " + cmd.Name)
	}))
	require.NoError(t, bus.RegisterCommandHandler(b, func(_ context.Context, cmd deleteThing) result.Result[struct{}] {
		deleted = append(deleted, cmd.ID)
		return result.Ok(struct{}{})
	}))

	res := bus.DispatchCommand[string](context.Background(), b, createThing{Name: "a"})
	require.True(t, res.IsSuccess())
	assert.Equal(t, "created a", res.Value())

	del := bus.DispatchCommand[struct{}](context.Background(), b, deleteThing{ID: "42"})
	require.True(t, del.IsSuccess())
	assert.Equal(t, []string{"42"}, deleted)
}

func TestDispatchCommand_HandlerFailureReturnedUnchanged(t *testing.T) {
	b := bus.NewCommandBus()
	validationErr := errs.NewValidationError("name", "", "is required")

	bus.MustRegisterCommandHandler(b, func(_ context.Context, _ createThing) result.Result[string] {
		return result.Fail[string](validationErr)
	})

	res := bus.DispatchCommand[string](context.Background(), b, createThing{})

	require.True(t, res.IsFailure())
	assert.Same(t, validationErr, res.Err())
}

func TestRegisterCommandHandler_Duplicate(t *testing.T) {
	b := bus.NewCommandBus()
	first := func(_ context.Context, _ createThing) result.Result[string] { return result.Ok("first") }
	second := func(_ context.Context, _ createThing) result.Result[string] { return result.Ok("second") }

	require.NoError(t, bus.RegisterCommandHandler(b, first))
	err := bus.RegisterCommandHandler(b, second)

	var dup *bus.DuplicateHandlerError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "thing.create", dup.Name)
	assert.Equal(t, errs.KindDuplicateHandler, errs.KindOf(err))

	// the original binding is untouched
	res := bus.DispatchCommand[string](context.Background(), b, createThing{})
	assert.Equal(t, "first", res.Value())

	assert.Panics(t, func() { bus.MustRegisterCommandHandler(b, second) })
}

func TestRegisterCommandHandler_InvalidInput(t *testing.T) {
	b := bus.NewCommandBus()

	err := bus.RegisterCommandHandler[createThing, string](b, nil)
	require.ErrorIs(t, err, bus.ErrNilHandler)

	err = bus.RegisterCommandHandler(b, func(_ context.Context, _ unnamed) result.Result[int] { return result.Ok(1) })
	require.ErrorIs(t, err, bus.ErrEmptyName)
}

func TestDispatchCommand_NilCommand(t *testing.T) {
	b := bus.NewCommandBus()

	res := bus.DispatchCommand[string](context.Background(), b, nil)

	require.ErrorIs(t, res.Err(), bus.ErrNilMessage)
}

func TestDispatchCommand_PanicBecomesUnexpectedError(t *testing.T) {
	b := bus.NewCommandBus()
	bus.MustRegisterCommandHandler(b, func(_ context.Context, _ createThing) result.Result[string] {
		panic("boom")
	})

	res := bus.DispatchCommand[string](context.Background(), b, createThing{})

	require.True(t, res.IsFailure())
	var unexpected *errs.UnexpectedError
	require.ErrorAs(t, res.Err(), &unexpected)
	assert.Equal(t, "an unexpected error occurred", res.Err().Error())
	assert.Contains(t, unexpected.Cause.Error(), "boom")
}

func TestDispatchCommand_PanicWithError(t *testing.T) {
	b := bus.NewCommandBus()
	cause := errors.New("db gone")
	bus.MustRegisterCommandHandler(b, func(_ context.Context, _ createThing) result.Result[string] {
		panic(cause)
	})

	res := bus.DispatchCommand[string](context.Background(), b, createThing{})

	assert.ErrorIs(t, res.Err(), cause)
	assert.Equal(t, errs.KindUnexpected, errs.KindOf(res.Err()))
}

func TestDispatchCommand_ResultTypeMismatch(t *testing.T) {
	b := bus.NewCommandBus()
	bus.MustRegisterCommandHandler(b, func(_ context.Context, _ createThing) result.Result[string] {
		return result.Ok("text")
	})

	res := bus.DispatchCommand[int](context.Background(), b, createThing{})

	require.True(t, res.IsFailure())
	assert.ErrorIs(t, res.Err(), bus.ErrResultTypeMismatch)
	assert.Equal(t, errs.KindUnexpected, errs.KindOf(res.Err()))
}

func TestDispatchCommand_PayloadTypeMismatch(t *testing.T) {
	b := bus.NewCommandBus()
	bus.MustRegisterCommandHandler(b, func(_ context.Context, _ createThing) result.Result[string] {
		return result.Ok("ok")
	})

	res := bus.DispatchCommand[string](context.Background(), b, impostor{})

	assert.ErrorIs(t, res.Err(), bus.ErrPayloadTypeMismatch)
}

func TestCommandBus_Introspection(t *testing.T) {
	b := bus.NewCommandBus()
	assert.False(t, b.HasHandler("thing.create"))
	assert.Empty(t, b.Handlers())

	bus.MustRegisterCommandHandler(b, func(_ context.Context, _ deleteThing) result.Result[int] { return result.Ok(0) })
	bus.MustRegisterCommandHandler(b, func(_ context.Context, _ createThing) result.Result[int] { return result.Ok(0) })

	assert.True(t, b.HasHandler("thing.create"))
	assert.Equal(t, []string{"thing.create", "thing.delete"}, b.Handlers())
}

func TestCommandBus_ConcurrentDispatchAndRegistration(t *testing.T) {
	b := bus.NewCommandBus()
	bus.MustRegisterCommandHandler(b, func(_ context.Context, cmd createThing) result.Result[string] {
		return result.Ok(cmd.Name)
	})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := bus.DispatchCommand[string](context.Background(), b, createThing{Name: "x"})
			assert.Equal(t, "x", res.Value())
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = bus.RegisterCommandHandler(b, func(_ context.Context, _ deleteThing) result.Result[int] {
			return result.Ok(1)
		})
	}()
	wg.Wait()

	assert.True(t, b.HasHandler("thing.delete"))
}
