// Package cloudapi implements the appliance cloud REST client and the
// server-sent-event stream behind it.
//
// # Purpose
//
// This package is the only part of ApplianceLink that speaks HTTP. It
// provides:
//   - The appliance listing used for discovery at startup
//   - The status/setting/program reads the sessions poll
//   - The program and setting writes commands translate into
//   - The per-appliance push event stream feeding the sessions
//
// # Authentication
//
// A pre-issued bearer token from config is attached to every request.
// Token refresh is the operator's responsibility; a rejected token
// surfaces as ErrAuthorization.
//
// # Error Handling
//
// Transport failures and unexpected responses wrap ErrCommunication,
// HTTP 401/403 wrap ErrAuthorization. A 404 on the selected or active
// program endpoints is not an error: it means no program occupies that
// slot and is reported through the bool result.
//
// # Event Stream
//
// StreamEvents blocks reading one appliance's stream until cancellation
// or disconnect. The caller runs it in a loop, sleeping RetryDelay()
// between attempts:
//
//	for {
//	    err := client.StreamEvents(ctx, haID, handle)
//	    if ctx.Err() != nil {
//	        return
//	    }
//	    log.Warn("event stream interrupted", "error", err)
//	    time.Sleep(client.RetryDelay())
//	}
package cloudapi
