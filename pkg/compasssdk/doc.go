/*
Package compasssdk is a Go client for the Compass assessment API.

A Client talks to the public endpoints: registration, login, health and the
invite links handed to third parties. Signing in returns a Session which
carries the bearer token for the owner endpoints.

	client := compasssdk.NewClient("https://api.aicompass.co")

	session, err := client.Login(ctx, "owner@example.com", "correct-horse")
	if err != nil {
		return err
	}

	a, err := session.CreateAssessment(ctx, compasssdk.CreateAssessmentRequest{
		CompanyName: "Acme",
	})

	// Hand a.InviteToken to the invitee, who needs no account:
	snap, err := client.GetInvite(ctx, a.InviteToken)

Failed calls return *APIError carrying the HTTP status, the error code and
the human readable detail sent by the server.
*/
package compasssdk
