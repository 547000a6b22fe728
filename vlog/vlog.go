// Package vlog is the fabric's structured logging surface. Unlike the
// teacher repo, which only ever logs through otel span events,
// vessels adopts github.com/sirupsen/logrus directly (already present
// elsewhere in the example pack) so a host process gets ordinary
// leveled log lines without needing an otel collector wired up. The
// fabric itself logs sparingly — spec.md reserves logging for exactly
// one situation: an inbound frame naming a fork with no live routing
// entry.
package vlog

import "github.com/sirupsen/logrus"

// Logger names the subset of *logrus.Logger the fabric calls. The
// fabric does not accept it in place of a logger: Options.Logger is a
// concrete *logrus.Logger.
type Logger interface {
	WithField(key string, value any) *logrus.Entry
	WithError(err error) *logrus.Entry
}

// Default returns logrus's standard logger, used when a Channel is built
// without an explicit Options.Logger.
func Default() *logrus.Logger {
	return logrus.StandardLogger()
}
