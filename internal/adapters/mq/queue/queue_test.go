package queue

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSplit(t *testing.T) {
	Convey("Given a record count", t, func() {
		Convey("When it divides evenly", func() {
			So(Split(6, 2), ShouldResemble, []Job{{0, 2}, {2, 4}, {4, 6}})
		})

		Convey("When the last job is short", func() {
			jobs := Split(7, 3)
			So(jobs, ShouldResemble, []Job{{0, 3}, {3, 6}, {6, 7}})
			So(jobs[2].Size(), ShouldEqual, 1)
		})

		Convey("When there is nothing to split", func() {
			So(Split(0, 4), ShouldBeEmpty)
		})

		Convey("When the size is not positive", func() {
			So(len(Split(3, 0)), ShouldEqual, 3)
		})
	})
}

func TestBuffered(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with room for two jobs", t, func() {
		q := NewBuffered(2)

		Convey("Then pushes beyond capacity are refused", func() {
			So(q.Push(ctx, Job{0, 1}), ShouldBeNil)
			So(q.Push(ctx, Job{1, 2}), ShouldBeNil)
			So(q.Pending(), ShouldEqual, 2)
			So(errors.Is(q.Push(ctx, Job{2, 3}), ErrFull), ShouldBeTrue)
		})

		Convey("Then a closed queue drains in order and refuses pushes", func() {
			So(q.Push(ctx, Job{0, 5}), ShouldBeNil)
			q.Close()
			q.Close()
			So(errors.Is(q.Push(ctx, Job{5, 6}), ErrClosed), ShouldBeTrue)

			var got []Job
			for j := range q.Jobs() {
				got = append(got, j)
			}
			So(got, ShouldResemble, []Job{{0, 5}})
		})

		Convey("Then a cancelled context is refused", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := q.Push(cctx, Job{0, 1})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a preloaded queue", t, func() {
		q, err := Load(ctx, Split(5, 2))
		So(err, ShouldBeNil)

		Convey("Then every job is pending and the queue is closed", func() {
			So(q.Pending(), ShouldEqual, 3)
			So(errors.Is(q.Push(ctx, Job{5, 6}), ErrClosed), ShouldBeTrue)
		})
	})
}
