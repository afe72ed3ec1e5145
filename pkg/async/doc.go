// Package async provides bounded concurrent batch execution.
//
// # Overview
//
// Media pipelines fan work out across frames and batch items. Batch caps
// the number of in-flight goroutines, gives each task its own timeout,
// converts panics into errors, and collects every failure:
//
//	errs := async.Batch(ctx, frames, 4, "video frame planning", time.Minute,
//		func(ctx context.Context, f Frame) error {
//			return planFrame(ctx, f)
//		})
//
// An empty error slice means every item succeeded. Batch never aborts the
// remaining items on a single failure; partial progress is the point.
package async
