package depersonalizer

// Version is the release of the depersonalizer module.
const Version = "0.1.0"
