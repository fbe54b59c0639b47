package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/gatehoundlib/go-gatehound/hound"
)

func newLogger(debug bool) *logrus.Entry {
	log := logrus.New()
	log.Out = os.Stdout
	log.SetFormatter(&logrus.JSONFormatter{})
	log.Level = logrus.InfoLevel
	if debug {
		log.Level = logrus.DebugLevel
	}
	return log.WithFields(logrus.Fields{})
}

func newLogEventNotifier(ll *logrus.Entry) hound.EventNotifier {
	return func(ev hound.Event) {
		entry := ll
		if ev.Err() != nil {
			entry = entry.WithError(ev.Err())
		}
		entry.WithFields(logrus.Fields{
			"target":     ev.GetTarget(),
			"detail":     ev.GetDetail(),
			"failures":   ev.GetFailures(),
			"created_at": ev.GetCreated(),
		}).Debug(ev.GetTag().String())
	}
}
