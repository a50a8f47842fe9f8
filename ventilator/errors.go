package ventilator

import "errors"

var (
	errTerminated = errors.New("ventilator: already terminated")
	errNoEndpoint = errors.New("ventilator: no endpoint descriptor or socket configured")
)
