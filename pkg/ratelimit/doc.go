// Package ratelimit paces successive upstream requests.
//
// The crawler calls Pacer.Wait between two page fetches, never before the
// first one. Delay waits a fixed duration and returns early with the
// context's error when the context ends:
//
//	pacer := ratelimit.NewDelay(1500 * time.Millisecond)
//	if err := pacer.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
