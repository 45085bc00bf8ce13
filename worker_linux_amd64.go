// SPDX-License-Identifier: Apache-2.0

//go:build linux && amd64

package rtcore

// sysSchedSetattr is sched_setattr's syscall number on this architecture;
// x/sys/unix ships no wrapper for SCHED_DEADLINE, so the raw number is
// needed for the unix.Syscall call in setWorkerScheduling. See
// arch/x86/entry/syscalls/syscall_64.tbl.
const sysSchedSetattr = 314
