// Package disc interfaces with physical optical drives.
//
// It provides drive enumeration via sysfs, tray status checks through the
// CDROM ioctl interface, disc label reading via lsblk, and ejector helpers so
// the workflow can safely release discs. Low-level device quirks stay isolated
// here, away from higher-level workflow code.
package disc
