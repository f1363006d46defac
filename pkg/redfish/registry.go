package redfish

const (
	// BasePrefix is the DMTF Base message registry version we emit.
	BasePrefix = "Base.1.16.0"

	// OEMPrefix is the registry for messages the Base registry has no entry for.
	OEMPrefix = "Seuss.1.0.0"
)

// Base registry entries used by the service.
var (
	GeneralError = MessageTemplate{
		RegistryPrefix: BasePrefix,
		Key:            "GeneralError",
		Severity:       HealthCritical,
		Message:        "A general error has occurred.  See Resolution for information on how to resolve the error, or @Message.ExtendedInfo if Resolution is not provided.",
		Resolution:     "None.",
	}

	AccessDenied = MessageTemplate{
		RegistryPrefix: BasePrefix,
		Key:            "AccessDenied",
		Severity:       HealthCritical,
		Message:        "While attempting to establish a connection to '%1', the service denied access.",
		Resolution:     "Attempt to ensure that the URI is correct and that the service has the appropriate credentials.",
		NumArgs:        1,
	}

	InsufficientPrivilege = MessageTemplate{
		RegistryPrefix: BasePrefix,
		Key:            "InsufficientPrivilege",
		Severity:       HealthCritical,
		Message:        "There are insufficient privileges for the account or credentials associated with the current session to perform the requested operation.",
		Resolution:     "Either abandon the operation or change the associated access rights and resubmit the request if the operation failed.",
	}

	NoValidSession = MessageTemplate{
		RegistryPrefix: BasePrefix,
		Key:            "NoValidSession",
		Severity:       HealthCritical,
		Message:        "There is no valid session established with the implementation.",
		Resolution:     "Establish a session before attempting any operations.",
	}

	ResourceNotFound = MessageTemplate{
		RegistryPrefix: BasePrefix,
		Key:            "ResourceNotFound",
		Severity:       HealthCritical,
		Message:        "The requested resource of type %1 named '%2' was not found.",
		Resolution:     "Provide a valid resource identifier and resubmit the request.",
		NumArgs:        2,
	}

	PropertyMissing = MessageTemplate{
		RegistryPrefix: BasePrefix,
		Key:            "PropertyMissing",
		Severity:       HealthWarning,
		Message:        "The property %1 is a required property and must be included in the request.",
		Resolution:     "Ensure that the property is in the request body and has a valid value and resubmit the request if the operation failed.",
		NumArgs:        1,
	}

	MalformedJSON = MessageTemplate{
		RegistryPrefix: BasePrefix,
		Key:            "MalformedJSON",
		Severity:       HealthCritical,
		Message:        "The request body submitted was malformed JSON and could not be parsed by the receiving service.",
		Resolution:     "Ensure that the request body is valid JSON and resubmit the request.",
	}

	SessionLimitExceeded = MessageTemplate{
		RegistryPrefix: BasePrefix,
		Key:            "SessionLimitExceeded",
		Severity:       HealthCritical,
		Message:        "The session establishment failed due to the number of simultaneous sessions exceeding the limit of the implementation.",
		Resolution:     "Reduce the number of other sessions before trying to establish the session or increase the limit of simultaneous sessions, if supported.",
	}

	Created = MessageTemplate{
		RegistryPrefix: BasePrefix,
		Key:            "Created",
		Severity:       HealthOK,
		Message:        "The resource was created successfully.",
		Resolution:     "None.",
	}

	Success = MessageTemplate{
		RegistryPrefix: BasePrefix,
		Key:            "Success",
		Severity:       HealthOK,
		Message:        "The request completed successfully.",
		Resolution:     "None.",
	}
)

// OEM registry entries.
var (
	SessionExpired = MessageTemplate{
		RegistryPrefix: OEMPrefix,
		Key:            "SessionExpired",
		Severity:       HealthCritical,
		Message:        "The session has expired after exceeding the idle timeout.",
		Resolution:     "Establish a new session before attempting any operations.",
	}

	OriginMismatch = MessageTemplate{
		RegistryPrefix: OEMPrefix,
		Key:            "OriginMismatch",
		Severity:       HealthCritical,
		Message:        "The request origin does not match the origin the session was established from.",
		Resolution:     "Establish a new session from this origin.",
	}

	RequestRateExceeded = MessageTemplate{
		RegistryPrefix: OEMPrefix,
		Key:            "RequestRateExceeded",
		Severity:       HealthWarning,
		Message:        "The request was rejected because too many requests were received in %1.",
		Resolution:     "Wait for the interval given by the Retry-After header and resubmit the request.",
		NumArgs:        1,
	}
)
