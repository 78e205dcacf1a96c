// Package cost provides opt-in pricing of generation calls. A Table maps
// (model id, provider) to a Pricing declaration; calculated costs feed a
// session-level Tracker. Nothing is priced unless the caller registers
// pricing, and unknown models report no cost rather than a zero one.
package cost
