// Package email provides transactional email delivery behind the EmailSender
// interface.
//
// Two implementations are included: a Postmark client for production and a
// logging DevSender for development. Callers build the HTML body themselves;
// this package only validates and delivers.
package email
