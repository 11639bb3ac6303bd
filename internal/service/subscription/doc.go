// Package subscription implements the subscriber onboarding pipeline.
//
// A signup is recorded in the store first and only then is the confirmation
// email sent. If the send fails the stored row is kept and the caller gets an
// infrastructure error; there is no compensation step.
//
// The service layer depends on the Repository and EmailSender interfaces
// defined in repository.go. It never imports net/http or database/sql directly.
package subscription
