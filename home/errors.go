package home

import "errors"

var (
	// ErrNilAuth indicates the configuration carried no auth manager.
	ErrNilAuth = errors.New("home: auth manager is required")

	// ErrNilListener indicates Setup was called without a listener.
	ErrNilListener = errors.New("home: listener is required")

	// ErrAlreadySetup indicates Setup was called on a manager that is
	// already running. Unload first.
	ErrAlreadySetup = errors.New("home: already set up")

	// ErrNoHomeID indicates Home.getGeneralInfo answered without a
	// home ID, leaving nothing to subscribe to.
	ErrNoHomeID = errors.New("home: home id missing from general info")

	// ErrMalformedDeviceList indicates the device enumeration payload
	// did not decode into device records.
	ErrMalformedDeviceList = errors.New("home: malformed device list")
)
