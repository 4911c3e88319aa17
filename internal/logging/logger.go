package logging

import "go.uber.org/zap"

// New builds the service logger: human readable in development, JSON otherwise.
func New(development bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Nop returns a logger that discards everything. Used by tests and optional components.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
