// Package timber makes a single-threaded memory-based classifier safe to
// use from many goroutines.
//
// A Classifier owns one base experiment built from an option string and
// trained once. Each goroutine that classifies takes its own Worker; on its
// first call the worker gets a private experiment cloned from the base, and
// keeps it until the worker (or the classifier) is closed. The base is never
// mutated by classification, and the pool lock is held only around map
// access, so workers classify in parallel.
//
// Quick start:
//
//	c, err := timber.New("-k 1 -w 2", timber.WithName("weather"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//	if err := c.TrainFile("weather.train"); err != nil {
//	    log.Fatal(err)
//	}
//
//	w := c.NewWorker()
//	defer w.Close()
//	res, _ := w.Classify3Safe("sunny cool high strong", true, 0)
//	fmt.Println(res.Label, res.Confidence)
//
// A Worker is not safe for concurrent use; give each goroutine its own.
// The Classify* methods on Classifier share one internal worker and are
// serialized.
package timber
