package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tether-dev/tether/pkg/bind"
	"github.com/tether-dev/tether/pkg/live"
	"github.com/tether-dev/tether/pkg/state"
)

// boardState is the one shared container every session binds to. The
// server mounts a store for it at session scope, so all views in all
// sessions see the same values.
var boardState = bind.NewShared("board")

// maxActivity bounds the activity feed.
const maxActivity = 8

// counterView renders the shared counter. Its filter hashes the count,
// so note dispatches never re-render it.
type counterView struct {
	dispatch bind.Dispatcher
}

func (v *counterView) Render(rc *live.RenderContext) any {
	count := live.UseShared(rc, boardState, bind.Config[int]{
		Selector: func(s state.State) int { return s.Int("count") },
		Filter:   state.Hash(func(s state.State) any { return s.Int("count") }),
	})
	v.dispatch = live.UseDispatch(rc, boardState)

	return map[string]any{"count": count}
}

func (v *counterView) HandleEvent(_ context.Context, ev live.Event) error {
	var delta int
	switch ev.Name {
	case "increment":
		delta = 1
	case "decrement":
		delta = -1
	default:
		return fmt.Errorf("counter: unknown event %q", ev.Name)
	}

	v.dispatch.Update(func(s state.State) state.State {
		return state.State{"count": s.Int("count") + delta}
	})
	return nil
}

// activityView renders the shared note feed. Its filter hashes the
// feed slice, so counter dispatches (which leave the slice untouched)
// never re-render it.
type activityView struct {
	dispatch bind.Dispatcher
}

func (v *activityView) Render(rc *live.RenderContext) any {
	entries := live.UseShared(rc, boardState, bind.Config[[]string]{
		Selector: activityEntries,
		Filter:   state.Hash(func(s state.State) any { return s["activity"] }),
	})
	v.dispatch = live.UseDispatch(rc, boardState)

	return map[string]any{"entries": entries}
}

func (v *activityView) HandleEvent(_ context.Context, ev live.Event) error {
	if ev.Name != "note" {
		return fmt.Errorf("activity: unknown event %q", ev.Name)
	}

	text, _ := ev.Data["text"].(string)
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("activity: empty note")
	}

	v.dispatch.Update(func(s state.State) state.State {
		return state.State{"activity": appendActivity(s, text)}
	})
	return nil
}

func activityEntries(s state.State) []string {
	entries, _ := s["activity"].([]string)
	return entries
}

// appendActivity returns a fresh feed with entry timestamped and
// appended, keeping the newest maxActivity entries.
func appendActivity(s state.State, entry string) []string {
	prev := activityEntries(s)
	next := make([]string, 0, len(prev)+1)
	next = append(next, prev...)
	next = append(next, time.Now().Format("15:04:05")+"  "+entry)
	if len(next) > maxActivity {
		next = next[len(next)-maxActivity:]
	}
	return next
}
