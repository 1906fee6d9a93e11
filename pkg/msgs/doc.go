// Package msgs provides the messages a receiver publishes.
package msgs

// Messages are encoded with protobuf and wrapped in Typed so a consumer
// can decode them without knowing the type upfront.
//
// Producer: ibusd
// Consumer: monitors, robot controllers, browsers
