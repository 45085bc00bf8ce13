// SPDX-License-Identifier: Apache-2.0

//go:build linux && arm64

package rtcore

// sysSchedSetattr is sched_setattr's syscall number on this architecture.
// See include/uapi/asm-generic/unistd.h (arm64 uses the generic table).
const sysSchedSetattr = 274
