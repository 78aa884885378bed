package querycache

import (
	"context"

	"todoapp/internal/apiclient"
)

// API is the slice of the HTTP client the todo cache needs.
type API interface {
	ListTodos(ctx context.Context) ([]apiclient.Todo, error)
	GetTodo(ctx context.Context, id uint) (*apiclient.Todo, error)
	CreateTodo(ctx context.Context, params apiclient.CreateTodoParams) (*apiclient.Todo, error)
	UpdateTodo(ctx context.Context, id uint, params apiclient.UpdateTodoParams) (*apiclient.Todo, error)
	DeleteTodo(ctx context.Context, id uint) error
}

// TodoCache is the cache controller for todos. Reads go through the cache
// and refetch on staleness; toggle and delete mutations apply optimistically
// and roll back on failure. Create is not optimistic: the server assigns
// the id, so the new todo only appears after the invalidated list refetches.
type TodoCache struct {
	cache *Cache
	api   API
}

func NewTodoCache(api API) *TodoCache {
	return &TodoCache{cache: New(), api: api}
}

// List returns the cached todo list, refetching when the cache is empty or
// invalidated. The returned slice is a copy; mutating it cannot corrupt the
// cache or the snapshots taken for rollback.
func (t *TodoCache) List(ctx context.Context) ([]apiclient.Todo, error) {
	if todos, ok := t.lookupList(); ok {
		return cloneTodos(todos), nil
	}

	rctx, gen := t.cache.BeginRefetch(ctx, TodoListKey)
	todos, err := t.api.ListTodos(rctx)
	if err != nil {
		t.cache.AbortRefetch(TodoListKey, gen)
		// A refetch cancelled by a mutation barrier falls back to the
		// cached (optimistic) view instead of surfacing an error.
		if rctx.Err() != nil {
			if prev, ok, _ := t.cache.Lookup(TodoListKey); ok {
				return cloneTodos(prev.([]apiclient.Todo)), nil
			}
		}
		return nil, err
	}

	if !t.cache.FinishRefetch(TodoListKey, gen, todos) {
		// Superseded while in flight; the response must not clobber
		// whatever wrote the cache in the meantime.
		if prev, ok, _ := t.cache.Lookup(TodoListKey); ok {
			return cloneTodos(prev.([]apiclient.Todo)), nil
		}
	}
	return cloneTodos(todos), nil
}

// Get returns one todo, refetching on a cache miss or invalidation.
func (t *TodoCache) Get(ctx context.Context, id uint) (*apiclient.Todo, error) {
	key := TodoDetailKey(id)
	if v, ok, stale := t.cache.Lookup(key); ok && !stale {
		todo := v.(apiclient.Todo)
		return &todo, nil
	}

	rctx, gen := t.cache.BeginRefetch(ctx, key)
	todo, err := t.api.GetTodo(rctx, id)
	if err != nil {
		t.cache.AbortRefetch(key, gen)
		if rctx.Err() != nil {
			if v, ok, _ := t.cache.Lookup(key); ok {
				cached := v.(apiclient.Todo)
				return &cached, nil
			}
		}
		return nil, err
	}

	if !t.cache.FinishRefetch(key, gen, *todo) {
		if v, ok, _ := t.cache.Lookup(key); ok {
			cached := v.(apiclient.Todo)
			return &cached, nil
		}
	}
	return todo, nil
}

// Create posts a new todo. The list key is invalidated on success only, so
// the created entity appears once the server has assigned its id.
func (t *TodoCache) Create(ctx context.Context, params apiclient.CreateTodoParams) (*apiclient.Todo, error) {
	todo, err := t.api.CreateTodo(ctx, params)
	if err != nil {
		return nil, err
	}
	t.cache.Invalidate(TodoListKey)
	return todo, nil
}

// ToggleCompleted optimistically sets the completed flag of todo id in the
// cached list and detail entry, then issues the PATCH. On failure both keys
// are restored to their exact snapshots. Either way both keys end up
// invalidated so the next read reflects server-side ordering and
// updated_at.
func (t *TodoCache) ToggleCompleted(ctx context.Context, id uint, completed bool) (*apiclient.Todo, error) {
	detailKey := TodoDetailKey(id)
	t.cache.CancelRefetch(TodoListKey, detailKey)

	prevList, hadList := t.lookupListAny()
	prevDetail, hadDetail := t.lookupDetail(id)

	if hadList {
		next := make([]apiclient.Todo, len(prevList))
		copy(next, prevList)
		for i := range next {
			if next[i].ID == id {
				next[i].Completed = completed
			}
		}
		t.cache.Set(TodoListKey, next)
	}
	if hadDetail {
		optimistic := prevDetail
		optimistic.Completed = completed
		t.cache.Set(detailKey, optimistic)
	}

	updated, err := t.api.UpdateTodo(ctx, id, apiclient.UpdateTodoParams{Completed: &completed})
	if err != nil {
		if hadList {
			t.cache.Set(TodoListKey, prevList)
		}
		if hadDetail {
			t.cache.Set(detailKey, prevDetail)
		}
	} else {
		t.cache.Set(detailKey, *updated)
	}

	t.cache.Invalidate(TodoListKey, detailKey)
	return updated, err
}

// Update issues a partial update without optimistic apply; on success the
// detail cache takes the server's representation and the list is
// invalidated.
func (t *TodoCache) Update(ctx context.Context, id uint, params apiclient.UpdateTodoParams) (*apiclient.Todo, error) {
	updated, err := t.api.UpdateTodo(ctx, id, params)
	if err != nil {
		return nil, err
	}
	t.cache.Set(TodoDetailKey(id), *updated)
	t.cache.Invalidate(TodoListKey)
	return updated, nil
}

// Delete optimistically removes todo id from the cached list, then issues
// the DELETE. On failure the list snapshot is restored; on success the
// detail entry is dropped. The list is invalidated on settlement.
func (t *TodoCache) Delete(ctx context.Context, id uint) error {
	t.cache.CancelRefetch(TodoListKey)

	prevList, hadList := t.lookupListAny()
	if hadList {
		next := make([]apiclient.Todo, 0, len(prevList))
		for _, todo := range prevList {
			if todo.ID != id {
				next = append(next, todo)
			}
		}
		t.cache.Set(TodoListKey, next)
	}

	err := t.api.DeleteTodo(ctx, id)
	if err != nil {
		if hadList {
			t.cache.Set(TodoListKey, prevList)
		}
	} else {
		t.cache.Drop(TodoDetailKey(id))
	}

	t.cache.Invalidate(TodoListKey)
	return err
}

// lookupList returns the cached list only when it is fresh.
func (t *TodoCache) lookupList() ([]apiclient.Todo, bool) {
	v, ok, stale := t.cache.Lookup(TodoListKey)
	if !ok || stale {
		return nil, false
	}
	return v.([]apiclient.Todo), true
}

// lookupListAny returns the cached list regardless of staleness; mutation
// snapshots must capture stale values too.
func (t *TodoCache) lookupListAny() ([]apiclient.Todo, bool) {
	v, ok, _ := t.cache.Lookup(TodoListKey)
	if !ok {
		return nil, false
	}
	return v.([]apiclient.Todo), true
}

func cloneTodos(todos []apiclient.Todo) []apiclient.Todo {
	out := make([]apiclient.Todo, len(todos))
	copy(out, todos)
	return out
}

func (t *TodoCache) lookupDetail(id uint) (apiclient.Todo, bool) {
	v, ok, _ := t.cache.Lookup(TodoDetailKey(id))
	if !ok {
		return apiclient.Todo{}, false
	}
	return v.(apiclient.Todo), true
}
