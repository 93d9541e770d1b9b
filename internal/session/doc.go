// Package session runs one fixed BLE session against a device.Manager:
// scan, pick the target peripheral by advertised name, connect, discover,
// poll-read the first characteristic until data arrives or the read timeout
// expires, write a payload without response, and disconnect.
//
// Every step runs strictly after the previous one. Fatal errors return early
// and leave any established connection open.
package session
