package config

import (
	"errors"
	"fmt"
)

// MountOptions holds high-level settings for attaching the medium.
// No go-fuse types are exposed here.
type MountOptions struct {
	Type       string // registered mounter name: "none" or "loopback"
	Source     string // backing directory for the loopback mounter
	Debug      bool   // fuse debug logs
	FsName     string // mount's FsName
	Name       string // mount's Name
	AllowOther bool   // let other users see the mount
	ReadOnly   bool   // mount read-only

	FormatIfMountFailed bool // format the medium when mounting fails
	MaxFiles            int  // max simultaneously open handles on the medium
	AllocationUnitSize  int  // cluster size in bytes used when formatting
}

func (o *MountOptions) merge(override *ConfigOverride) {
	if override.MountType != nil {
		o.Type = *override.MountType
	}
	if override.Source != nil {
		o.Source = *override.Source
	}
	if override.Debug != nil {
		o.Debug = *override.Debug
	}
	if override.FsName != nil {
		o.FsName = *override.FsName
	}
	if override.Name != nil {
		o.Name = *override.Name
	}
	if override.AllowOther != nil {
		o.AllowOther = *override.AllowOther
	}
	if override.ReadOnly != nil {
		o.ReadOnly = *override.ReadOnly
	}
	if override.FormatIfMountFailed != nil {
		o.FormatIfMountFailed = *override.FormatIfMountFailed
	}
	if override.MaxFiles != nil {
		o.MaxFiles = *override.MaxFiles
	}
	if override.AllocationUnitSize != nil {
		o.AllocationUnitSize = *override.AllocationUnitSize
	}
}

// Validate checks the options every mounter relies on.
func (o *MountOptions) Validate() error {
	if o.Type == "" {
		return errors.New("mount_type must be set")
	}
	// Navigation holds exactly one directory open at a time.
	if o.MaxFiles < 1 {
		return fmt.Errorf("max_files must be at least 1: %d", o.MaxFiles)
	}
	if o.AllocationUnitSize < 0 {
		return fmt.Errorf("allocation_unit_size must not be negative: %d", o.AllocationUnitSize)
	}
	return nil
}
