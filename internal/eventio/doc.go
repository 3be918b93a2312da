// Package eventio reads detector input: the sensor table as CSV and events
// as JSON, resolving each hit's sensor ID to its position.
package eventio
