// Package pipeline orchestrates the full text-to-command flow.
//
// One Execute call runs the chain: parse the utterance into an Intent,
// validate it, build the situational Context, make a Decision, translate it
// to a device command, and send the command over the transport the target
// device is registered on.
//
// # Execution Guards
//
// Two guards sit between decision and execution:
//
//   - Execution lock: a short-lived Redis lock on lock:{target}. Contention
//     means another instance is already acting on the device; the command is
//     skipped and logged, never queued.
//   - Cooldown: an identical (device, action) pair within the cooldown
//     window (default 60s) is skipped. This absorbs repeated utterances and
//     retry storms.
//
// Both guards degrade gracefully: without a cache the lock step is skipped,
// and lock backend errors fall through to execution rather than blocking it.
//
// # Recording
//
// Executed actions are recorded in three places, each optional:
//
//   - the context layer's cached history (feeds the next request's Context)
//   - the SQLite action history repository
//   - a capped decision log ring in Redis (last 100 decisions)
//
// When a time-series client is configured, decisions and evaluated outcome
// quality are written there as well.
//
// # Usage
//
//	p := pipeline.New(pipeline.Deps{
//	    Parser:     parser,
//	    Contexts:   contexts,
//	    Engine:     engine,
//	    Registry:   registry,
//	    Transports: map[string]protocol.Protocol{"mqtt": mqttProto},
//	    Locks:      redisCache,
//	    History:    historyRepo,
//	    Logger:     log,
//	})
//
//	result, err := p.Execute(ctx, "allume la lumière du salon", "alice")
//	if err != nil {
//	    return err
//	}
//	if !result.Executed {
//	    log.Info("command skipped", "reason", result.SkipReason)
//	}
package pipeline
