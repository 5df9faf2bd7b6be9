package service

import "errors"

var (
	// ErrForbidden is returned when the authorization policy denies the action.
	ErrForbidden = errors.New("not authorized")

	// ErrInvalidVehicleID is returned when vehicle ID is empty.
	ErrInvalidVehicleID = errors.New("invalid vehicle id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidRegistration is returned when the registration number is empty.
	ErrInvalidRegistration = errors.New("invalid registration number")

	// ErrInvalidCategory is returned when the vehicle category is unknown.
	ErrInvalidCategory = errors.New("invalid vehicle category")

	// ErrInvalidVehicleStatus is returned when the vehicle status is unknown.
	ErrInvalidVehicleStatus = errors.New("invalid vehicle status")

	// ErrInvalidYear is returned when the vehicle year is out of range.
	ErrInvalidYear = errors.New("invalid vehicle year")

	// ErrInvalidLocation is returned when coordinates are missing or out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidSpeed is returned when a reported speed is negative.
	ErrInvalidSpeed = errors.New("invalid speed")

	// ErrInvalidDistance is returned when a supplied trip distance is negative.
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrInvalidName is returned when a user name is empty.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidEmail is returned when an email is empty or malformed.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidPassword is returned when a password is too short.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrDuplicateRegistration is returned when the registration number is taken.
	ErrDuplicateRegistration = errors.New("registration number already registered")

	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNotADriver is returned when assigning a user who is not a driver.
	ErrNotADriver = errors.New("user is not a driver")

	// ErrVehicleUnassigned is returned when starting a trip on behalf of a
	// vehicle that has no assigned driver.
	ErrVehicleUnassigned = errors.New("vehicle has no assigned driver")

	// ErrVehicleHasOngoingTrip is returned when the vehicle already has an
	// ongoing trip, or when deleting a vehicle mid-trip.
	ErrVehicleHasOngoingTrip = errors.New("vehicle has an ongoing trip")

	// ErrTripNotOngoing is returned when mutating a completed or cancelled trip.
	ErrTripNotOngoing = errors.New("trip is not ongoing")

	// ErrVehicleBusy is returned when the per-vehicle lock could not be
	// acquired before the wait budget ran out.
	ErrVehicleBusy = errors.New("vehicle is busy, retry")
)
