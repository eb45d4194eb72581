// Package movavg provides small moving-average accumulators for tracking
// rates and latencies alongside a limiter: a count-weighted exponential
// moving average and a time-decayed moving average.
//
// Neither type is safe for concurrent use; wrap with your own
// synchronization if observations arrive from multiple goroutines.
//
//	ema, _ := movavg.NewEMA(10)
//	ema.Add(120)
//	ema.Add(80)
//	fmt.Println(ema.Average()) // 100
//
//	avg, _ := movavg.NewTimeDecaying(time.Minute)
//	avg.Add(latency.Seconds())
package movavg
