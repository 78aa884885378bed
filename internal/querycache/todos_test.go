package querycache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoapp/internal/apiclient"
)

// stubAPI lets each test script the network layer.
type stubAPI struct {
	mu          sync.Mutex
	listCalls   int
	updateCalls int

	listFn   func(ctx context.Context) ([]apiclient.Todo, error)
	getFn    func(ctx context.Context, id uint) (*apiclient.Todo, error)
	createFn func(ctx context.Context, params apiclient.CreateTodoParams) (*apiclient.Todo, error)
	updateFn func(ctx context.Context, id uint, params apiclient.UpdateTodoParams) (*apiclient.Todo, error)
	deleteFn func(ctx context.Context, id uint) error
}

func (s *stubAPI) ListTodos(ctx context.Context) ([]apiclient.Todo, error) {
	s.mu.Lock()
	s.listCalls++
	s.mu.Unlock()
	return s.listFn(ctx)
}

func (s *stubAPI) GetTodo(ctx context.Context, id uint) (*apiclient.Todo, error) {
	return s.getFn(ctx, id)
}

func (s *stubAPI) CreateTodo(ctx context.Context, params apiclient.CreateTodoParams) (*apiclient.Todo, error) {
	return s.createFn(ctx, params)
}

func (s *stubAPI) UpdateTodo(ctx context.Context, id uint, params apiclient.UpdateTodoParams) (*apiclient.Todo, error) {
	s.mu.Lock()
	s.updateCalls++
	s.mu.Unlock()
	return s.updateFn(ctx, id, params)
}

func (s *stubAPI) DeleteTodo(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func (s *stubAPI) listCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func sampleTodos() []apiclient.Todo {
	return []apiclient.Todo{
		{ID: 2, Title: "Walk the dog", Completed: false, Priority: "HIGH", UserID: 1,
			CreatedAt: "2025-06-02T10:00:00Z", UpdatedAt: "2025-06-02T10:00:00Z"},
		{ID: 1, Title: "Buy milk", Completed: false, Priority: "MEDIUM", UserID: 1,
			CreatedAt: "2025-06-01T10:00:00Z", UpdatedAt: "2025-06-01T10:00:00Z"},
	}
}

// primeList fills the list cache through a normal read.
func primeList(t *testing.T, tc *TodoCache, stub *stubAPI, todos []apiclient.Todo) {
	t.Helper()
	stub.listFn = func(ctx context.Context) ([]apiclient.Todo, error) {
		return todos, nil
	}
	got, err := tc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, len(todos))
}

func TestListCachesUntilInvalidated(t *testing.T) {
	stub := &stubAPI{}
	tc := NewTodoCache(stub)
	primeList(t, tc, stub, sampleTodos())

	// Second read is served from cache without a network call.
	_, err := tc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stub.listCallCount())

	tc.cache.Invalidate(TodoListKey)
	_, err = tc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stub.listCallCount())
}

func TestToggleAppliesOptimisticallyBeforeSettlement(t *testing.T) {
	stub := &stubAPI{}
	tc := NewTodoCache(stub)
	primeList(t, tc, stub, sampleTodos())

	release := make(chan struct{})
	stub.updateFn = func(ctx context.Context, id uint, params apiclient.UpdateTodoParams) (*apiclient.Todo, error) {
		<-release
		todo := sampleTodos()[1]
		todo.Completed = true
		todo.UpdatedAt = "2025-06-03T09:00:00Z"
		return &todo, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := tc.ToggleCompleted(context.Background(), 1, true)
		done <- err
	}()

	// The optimistic write lands before the network call settles.
	require.Eventually(t, func() bool {
		v, ok, _ := tc.cache.Lookup(TodoListKey)
		if !ok {
			return false
		}
		for _, todo := range v.([]apiclient.Todo) {
			if todo.ID == 1 {
				return todo.Completed
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	// While pending, the list key has not been invalidated yet.
	_, _, stale := tc.cache.Lookup(TodoListKey)
	assert.False(t, stale)

	close(release)
	require.NoError(t, <-done)

	_, _, stale = tc.cache.Lookup(TodoListKey)
	assert.True(t, stale, "list must be invalidated on settlement")
}

func TestToggleFailureRestoresExactSnapshot(t *testing.T) {
	stub := &stubAPI{}
	tc := NewTodoCache(stub)
	before := sampleTodos()
	primeList(t, tc, stub, before)

	stub.updateFn = func(ctx context.Context, id uint, params apiclient.UpdateTodoParams) (*apiclient.Todo, error) {
		return nil, errors.New("server rejected the update")
	}

	_, err := tc.ToggleCompleted(context.Background(), 1, true)
	require.Error(t, err)

	v, ok, stale := tc.cache.Lookup(TodoListKey)
	require.True(t, ok)
	assert.Equal(t, before, v.([]apiclient.Todo), "rollback must restore the snapshot field for field")
	assert.True(t, stale, "failed mutations still invalidate")
}

func TestToggleSuccessReconcilesDetailAndInvalidatesList(t *testing.T) {
	stub := &stubAPI{}
	tc := NewTodoCache(stub)
	primeList(t, tc, stub, sampleTodos())

	server := sampleTodos()[1]
	server.Completed = true
	server.UpdatedAt = "2025-06-03T09:00:00Z"
	stub.updateFn = func(ctx context.Context, id uint, params apiclient.UpdateTodoParams) (*apiclient.Todo, error) {
		require.NotNil(t, params.Completed)
		assert.True(t, *params.Completed)
		return &server, nil
	}

	updated, err := tc.ToggleCompleted(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-03T09:00:00Z", updated.UpdatedAt)

	// The detail cache now holds the server's representation.
	v, ok, _ := tc.cache.Lookup(TodoDetailKey(1))
	require.True(t, ok)
	assert.Equal(t, server, v.(apiclient.Todo))

	// A subsequent list read refetches server truth.
	refreshed := sampleTodos()
	refreshed[1].Completed = true
	refreshed[1].UpdatedAt = "2025-06-03T09:00:00Z"
	stub.listFn = func(ctx context.Context) ([]apiclient.Todo, error) {
		return refreshed, nil
	}
	calls := stub.listCallCount()
	got, err := tc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, calls+1, stub.listCallCount())
	assert.Equal(t, refreshed, got)
}

func TestDeleteOptimisticallyRemovesAndRollsBackOnFailure(t *testing.T) {
	stub := &stubAPI{}
	tc := NewTodoCache(stub)
	before := sampleTodos()
	primeList(t, tc, stub, before)

	release := make(chan struct{})
	stub.deleteFn = func(ctx context.Context, id uint) error {
		<-release
		return errors.New("connection reset")
	}

	done := make(chan error, 1)
	go func() {
		done <- tc.Delete(context.Background(), 1)
	}()

	require.Eventually(t, func() bool {
		v, ok, _ := tc.cache.Lookup(TodoListKey)
		return ok && len(v.([]apiclient.Todo)) == 1
	}, time.Second, 5*time.Millisecond, "entity is removed from the cached list before settlement")

	close(release)
	require.Error(t, <-done)

	v, ok, stale := tc.cache.Lookup(TodoListKey)
	require.True(t, ok)
	assert.Equal(t, before, v.([]apiclient.Todo))
	assert.True(t, stale)
}

func TestDeleteSuccessDropsDetailEntry(t *testing.T) {
	stub := &stubAPI{}
	tc := NewTodoCache(stub)
	primeList(t, tc, stub, sampleTodos())
	tc.cache.Set(TodoDetailKey(1), sampleTodos()[1])

	stub.deleteFn = func(ctx context.Context, id uint) error {
		return nil
	}

	require.NoError(t, tc.Delete(context.Background(), 1))

	_, ok, _ := tc.cache.Lookup(TodoDetailKey(1))
	assert.False(t, ok, "detail entry is dropped after a confirmed delete")

	v, ok, stale := tc.cache.Lookup(TodoListKey)
	require.True(t, ok)
	assert.Len(t, v.([]apiclient.Todo), 1)
	assert.True(t, stale)
}

func TestCreateIsNotOptimistic(t *testing.T) {
	stub := &stubAPI{}
	tc := NewTodoCache(stub)
	primeList(t, tc, stub, sampleTodos())

	stub.createFn = func(ctx context.Context, params apiclient.CreateTodoParams) (*apiclient.Todo, error) {
		return nil, errors.New("title cannot be empty")
	}
	_, err := tc.Create(context.Background(), apiclient.CreateTodoParams{UserID: 1})
	require.Error(t, err)

	// A failed create leaves the list cache untouched and fresh.
	v, ok, stale := tc.cache.Lookup(TodoListKey)
	require.True(t, ok)
	assert.Len(t, v.([]apiclient.Todo), 2)
	assert.False(t, stale)

	stub.createFn = func(ctx context.Context, params apiclient.CreateTodoParams) (*apiclient.Todo, error) {
		return &apiclient.Todo{ID: 3, Title: params.Title, UserID: params.UserID, Priority: "MEDIUM"}, nil
	}
	created, err := tc.Create(context.Background(), apiclient.CreateTodoParams{Title: "New", UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, uint(3), created.ID)

	_, _, stale = tc.cache.Lookup(TodoListKey)
	assert.True(t, stale, "successful create invalidates the list so the refetch picks it up")
}

func TestMutationBarrierCancelsInflightRefetch(t *testing.T) {
	stub := &stubAPI{}
	tc := NewTodoCache(stub)
	primeList(t, tc, stub, sampleTodos())
	tc.cache.Invalidate(TodoListKey)

	// A slow refetch holding stale data is in flight when the mutation
	// arrives.
	fetchStarted := make(chan struct{})
	releaseFetch := make(chan struct{})
	staleFromServer := sampleTodos() // pre-toggle view
	stub.listFn = func(ctx context.Context) ([]apiclient.Todo, error) {
		close(fetchStarted)
		select {
		case <-releaseFetch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return staleFromServer, nil
	}

	listDone := make(chan struct{})
	go func() {
		tc.List(context.Background())
		close(listDone)
	}()
	<-fetchStarted

	stub.updateFn = func(ctx context.Context, id uint, params apiclient.UpdateTodoParams) (*apiclient.Todo, error) {
		todo := sampleTodos()[1]
		todo.Completed = true
		return &todo, nil
	}
	_, err := tc.ToggleCompleted(context.Background(), 1, true)
	require.NoError(t, err)

	close(releaseFetch)
	<-listDone

	// The cancelled refetch must not have clobbered the reconciled cache
	// with its pre-mutation view.
	v, ok, _ := tc.cache.Lookup(TodoListKey)
	require.True(t, ok)
	for _, todo := range v.([]apiclient.Todo) {
		if todo.ID == 1 {
			assert.True(t, todo.Completed, "stale refetch response must be discarded")
		}
	}
}
