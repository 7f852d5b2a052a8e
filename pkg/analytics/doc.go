// Package analytics reports product events to an analytics backend.
//
// The Tracker interface takes category/action/label triplets, the shape the
// Google Analytics Measurement Protocol expects. The GA implementation posts
// events synchronously; callers decide whether a tracking failure is fatal.
// NoopTracker is the drop-in for tests and deployments without a tracking id.
package analytics
