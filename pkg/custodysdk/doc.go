// Package custodysdk is the client used by chat gateways (the Telegram bot)
// to talk to the custody service.
//
// A gateway forwards the user's enrollment message as is:
//
//	c := custodysdk.NewClient("http://custodian:8080", token)
//	profile, err := c.EnrollMessage(ctx, chatID, text)
//	switch {
//	case errors.Is(err, custodysdk.ErrAlreadyEnrolled):
//		// reply with the existing address
//	case errors.Is(err, custodysdk.ErrInvalidKey):
//		// ask the user to resend
//	}
//
// The gateway must delete the user's chat message after forwarding it; the
// service never echoes the password or key back.
package custodysdk
