// Package apiclient is the single egress path to the Secure File Vault API.
//
// Every call goes through Client.Request, which:
//   - merges caller headers over the defaults (Accept: application/json)
//   - encodes the request Body variant and sets its content type
//   - attaches the bearer credential in token mode, or carries the session cookie
//     jar in cookie mode
//   - forces a logout on 401 responses and returns ErrUnauthorized
//   - parses the response as JSON, text or blob
//
// Non-2xx responses other than 401 are returned as *RequestError with the parsed
// body attached:
//
//	_, err := client.Post(ctx, "/reset-password", apiclient.JSON(payload))
//	var reqErr *apiclient.RequestError
//	if errors.As(err, &reqErr) {
//		fmt.Println(reqErr.StatusCode, reqErr.Message)
//	}
//
// # Cancellation
//
// Requests honor ctx. Callers that supersede in-flight requests use a CancelSlot and
// drop results for which IsCanceled reports true:
//
//	ctx, release := slot.Next(ctx)
//	defer release()
//	data, err := client.Get(ctx, "/files?search="+query)
//	if apiclient.IsCanceled(err) {
//		return nil
//	}
package apiclient
