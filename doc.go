// Package distributedjob tracks the parts of one distributed job across any
// number of uncoordinated processes, using a shared key-value store as the
// only point of coordination.
//
// A producer splits a unit of work into parts, pushes each part under a
// shared token, and hands the token plus part identifier to whatever
// execution substrate it likes (a job queue, a worker pool, another
// process). Workers report completion with only the token and part; the
// last completed part of a closed job, and only that one, observes a
// finished signal.
//
// # Quick Start
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	coord, err := distributedjob.New(redisstore.New(client))
//	if err != nil { ... }
//
//	job := coord.Job(distributedjob.NewToken())
//	err = distributedjob.PushEach(ctx, job, slices.Values(items),
//	    func(item string, part string) error {
//	        return queue.Enqueue(workPayload{Token: job.Token(), Part: part, Item: item})
//	    })
//
// And in the worker, after processing its item:
//
//	finished, err := coord.Job(payload.Token).Done(ctx, payload.Part)
//	if finished {
//	    // every part of the job has completed
//	}
//
// Distributedjob is a library, not a service. It executes no work itself and
// imposes no scheduling model: every operation is a stateless, idempotent
// call against the store, safe under unbounded concurrent callers. Job state
// carries a sliding TTL refreshed on every mutation, so abandoned jobs clean
// themselves up without an explicit deletion path.
package distributedjob
