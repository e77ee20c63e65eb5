// Package notifier defines the notification delivery boundary and its SMTP
// implementation.
//
// Notifications carry their own recipients, priority and pre-rendered body;
// the alert constructors (restock, sold-out, test) encode the message
// formats. DeliveryError classifies send failures for the retry executor.
package notifier
