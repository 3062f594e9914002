// Package coordinator keeps a client-side course outline in sync with the
// server. Moves and removals are applied locally at once and persisted in the
// background; a failed call restores the outline captured when that call was
// issued.
package coordinator

import (
	"context"
	"coursehub/logger"
	"coursehub/ordering"
	"sync"

	"github.com/google/uuid"
)

type callIDKey struct{}

// CallID returns the id of the coordinator call that issued ctx, if any.
func CallID(ctx context.Context) string {
	id, _ := ctx.Value(callIDKey{}).(string)
	return id
}

// Call is one persisted intent.
type Call struct {
	ID   string
	Kind Kind
	Op   string

	snapshot Outline
	done     chan struct{}
	result   ordering.Result
}

func newCall(kind Kind, op string) *Call {
	return &Call{ID: uuid.NewString(), Kind: kind, Op: op, done: make(chan struct{})}
}

func (c *Call) resolve(res ordering.Result) {
	c.result = res
	close(c.done)
}

// Wait blocks until the call resolves and returns its result.
func (c *Call) Wait() ordering.Result {
	<-c.done
	return c.result
}

type Coordinator struct {
	mu       sync.Mutex
	outline  Outline
	inFlight int

	persister Persister
	notifier  Notifier
	log       *logger.Logger
	wg        sync.WaitGroup
}

func New(outline Outline, persister Persister, notifier Notifier, log *logger.Logger) *Coordinator {
	outline = outline.Clone()
	outline.sort()
	return &Coordinator{
		outline:   outline,
		persister: persister,
		notifier:  notifier,
		log:       log.With("component", "coordinator", "course_id", outline.CourseID),
	}
}

// Outline returns a copy of the local view.
func (c *Coordinator) Outline() Outline {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outline.Clone()
}

// State is Pending while any call is in flight.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight > 0 {
		return Pending
	}
	return Stable
}

// Move places sourceID at targetID's position. parentID is the course for
// chapters and the source's chapter for lessons.
func (c *Coordinator) Move(ctx context.Context, kind Kind, sourceID, targetID, parentID uint) *Call {
	call := newCall(kind, "move")

	c.mu.Lock()
	plan, err := c.planMove(kind, sourceID, targetID, parentID)
	if err != nil {
		c.mu.Unlock()
		return c.reject(call, err, "Failed to reorder "+string(kind)+"s")
	}
	if plan.Empty() {
		c.mu.Unlock()
		call.resolve(ordering.Success("Nothing to reorder"))
		return call
	}
	c.begin(call, kind, plan)
	courseID := c.outline.CourseID
	c.mu.Unlock()

	c.dispatch(ctx, call, func(ctx context.Context) ordering.Result {
		if kind == KindChapter {
			return c.persister.ReorderChapters(ctx, courseID, plan.Changes)
		}
		return c.persister.ReorderLessons(ctx, courseID, plan.ParentID, plan.Changes)
	})
	return call
}

// Remove deletes id and closes the gap among its siblings.
func (c *Coordinator) Remove(ctx context.Context, kind Kind, id, parentID uint) *Call {
	call := newCall(kind, "remove")

	c.mu.Lock()
	plan, err := c.planRemove(kind, id, parentID)
	if err != nil {
		c.mu.Unlock()
		return c.reject(call, err, "Failed to delete "+string(kind))
	}
	c.begin(call, kind, plan)
	courseID := c.outline.CourseID
	c.mu.Unlock()

	c.dispatch(ctx, call, func(ctx context.Context) ordering.Result {
		if kind == KindChapter {
			return c.persister.DeleteChapter(ctx, courseID, id)
		}
		return c.persister.DeleteLesson(ctx, courseID, plan.ParentID, id)
	})
	return call
}

// Refresh replaces the local view with the server's outline. It refuses while
// calls are in flight.
func (c *Coordinator) Refresh(ctx context.Context) ordering.Result {
	c.mu.Lock()
	courseID, busy := c.outline.CourseID, c.inFlight > 0
	c.mu.Unlock()
	if busy {
		return ordering.Failure(ordering.KindValidation, "Changes are still being saved")
	}

	outline, res := c.persister.Outline(ctx, courseID)
	if !res.OK() {
		c.log.Warn("outline refresh failed", "kind", res.Kind, "message", res.Message)
		return res
	}
	outline.sort()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight > 0 {
		return ordering.Failure(ordering.KindValidation, "Changes are still being saved")
	}
	c.outline = outline
	return res
}

// Wait blocks until every dispatched call has resolved.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) planMove(kind Kind, sourceID, targetID, parentID uint) (ordering.Plan, error) {
	switch kind {
	case KindChapter:
		if parentID != c.outline.CourseID {
			return ordering.Plan{}, ordering.Errorf(ordering.KindNotFound, "Could not determine the chapter for reordering")
		}
		plan, err := ordering.PlanItems(c.outline.chapterItems(), sourceID, targetID)
		if err != nil {
			return plan, ordering.Errorf(ordering.KindNotFound, "Could not determine the chapter for reordering")
		}
		return plan, nil
	case KindLesson:
		plan, err := ordering.PlanItems(c.outline.lessonItems(), sourceID, targetID)
		switch ordering.KindOf(err) {
		case ordering.KindCrossParent:
			return plan, ordering.Errorf(ordering.KindCrossParent, "Lesson move between different chapters is not allowed")
		case "":
		default:
			return plan, ordering.Errorf(ordering.KindNotFound, "Could not determine the lesson for reordering")
		}
		if plan.ParentID != parentID {
			return ordering.Plan{}, ordering.Errorf(ordering.KindCrossParent, "Lesson move between different chapters is not allowed")
		}
		return plan, nil
	}
	return ordering.Plan{}, ordering.Errorf(ordering.KindValidation, "Unknown item kind %q", kind)
}

func (c *Coordinator) planRemove(kind Kind, id, parentID uint) (ordering.Plan, error) {
	switch kind {
	case KindChapter:
		plan, err := ordering.Remove(c.outline.chapterItems(), id)
		if err != nil || parentID != c.outline.CourseID {
			return ordering.Plan{}, ordering.Errorf(ordering.KindNotFound, "Chapter not found")
		}
		return plan, nil
	case KindLesson:
		plan, err := ordering.Remove(c.outline.lessonItems(), id)
		if err != nil || plan.ParentID != parentID {
			return ordering.Plan{}, ordering.Errorf(ordering.KindNotFound, "Lesson not found")
		}
		return plan, nil
	}
	return ordering.Plan{}, ordering.Errorf(ordering.KindValidation, "Unknown item kind %q", kind)
}

// begin snapshots the outline into call and applies plan. Callers hold mu.
func (c *Coordinator) begin(call *Call, kind Kind, plan ordering.Plan) {
	call.snapshot = c.outline.Clone()
	if kind == KindChapter {
		c.outline.applyChapters(plan.Order)
	} else {
		c.outline.applyLessons(plan.ParentID, plan.Order)
	}
	c.inFlight++
	c.wg.Add(1)
}

func (c *Coordinator) dispatch(ctx context.Context, call *Call, persist func(context.Context) ordering.Result) {
	ctx = context.WithValue(ctx, callIDKey{}, call.ID)
	go func() {
		defer c.wg.Done()
		res := persist(ctx)

		c.mu.Lock()
		if !res.OK() {
			c.outline = call.snapshot
		}
		c.inFlight--
		c.mu.Unlock()

		if res.OK() {
			c.log.Debug("call confirmed", "call_id", call.ID, "kind", call.Kind, "op", call.Op)
		} else {
			c.log.Warn("call rolled back", "call_id", call.ID, "kind", call.Kind, "op", call.Op,
				"reason", res.Kind, "message", res.Message)
		}
		c.notifier.Notify(res)
		call.resolve(res)
	}()
}

// reject resolves an intent that never reached the server.
func (c *Coordinator) reject(call *Call, err error, fallback string) *Call {
	res := ordering.FromError(err, fallback)
	c.log.Info("intent rejected", "call_id", call.ID, "kind", call.Kind, "op", call.Op, "reason", res.Kind)
	c.notifier.Notify(res)
	call.resolve(res)
	return call
}
