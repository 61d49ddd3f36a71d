package assertgen

import (
	"context"
	"errors"
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"

	"github.com/Faultbox/m3dabi/pkg/m3d"
)

// Static sizing errors.
var (
	ErrUnknownArch  = errors.New("unknown GOARCH")
	ErrTypeNotFound = errors.New("type not found in package")
)

// StaticConfig selects the target for StaticSizes.
type StaticConfig struct {
	Arch string // GOARCH whose layout rules apply
	Dir  string // directory inside the module; empty means the working directory
}

// StaticSizes measures entries as the gc compiler would lay them out for
// cfg.Arch, without running on that architecture. The mirror packages are
// type-checked with go/packages and sized with go/types.
func StaticSizes(ctx context.Context, cfg StaticConfig, entries []m3d.Entry) ([]Record, error) {
	sizes, typs, err := loadTypes(ctx, cfg, entries)
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = Record{Entry: e, Size: uintptr(sizes.Sizeof(typs[i]))}
	}
	return records, nil
}

// StaticLayouts is the cross-architecture counterpart of Layout.
func StaticLayouts(ctx context.Context, cfg StaticConfig, entries []m3d.Entry) ([]TypeLayout, error) {
	sizes, typs, err := loadTypes(ctx, cfg, entries)
	if err != nil {
		return nil, err
	}

	qualifier := func(p *types.Package) string { return p.Name() }
	layouts := make([]TypeLayout, len(entries))
	for i, e := range entries {
		t := typs[i]
		l := TypeLayout{
			Entry: e,
			Size:  uintptr(sizes.Sizeof(t)),
			Align: uintptr(sizes.Alignof(t)),
		}
		if st, ok := t.Underlying().(*types.Struct); ok {
			vars := make([]*types.Var, st.NumFields())
			for j := range vars {
				vars[j] = st.Field(j)
			}
			offsets := sizes.Offsetsof(vars)
			for j, v := range vars {
				ft := types.Unalias(v.Type())
				l.Fields = append(l.Fields, Field{
					Name:   v.Name(),
					Type:   types.TypeString(ft, qualifier),
					Offset: uintptr(offsets[j]),
					Size:   uintptr(sizes.Sizeof(ft)),
					Align:  uintptr(sizes.Alignof(ft)),
				})
			}
			l.Holes = holes(l.Fields, l.Size)
		}
		layouts[i] = l
	}
	return layouts, nil
}

// loadTypes resolves each entry's mirror type with go/types and returns
// the gc sizes for cfg.Arch.
func loadTypes(ctx context.Context, cfg StaticConfig, entries []m3d.Entry) (types.Sizes, []types.Type, error) {
	sizes := types.SizesFor("gc", cfg.Arch)
	if sizes == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownArch, cfg.Arch)
	}

	var paths []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if p := e.Type.PkgPath(); p != "" && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	scopes := make(map[string]*types.Scope)
	if len(paths) > 0 {
		pkgs, err := packages.Load(&packages.Config{
			Context: ctx,
			Mode:    packages.NeedName | packages.NeedTypes,
			Dir:     cfg.Dir,
		}, paths...)
		if err != nil {
			return nil, nil, fmt.Errorf("loading %v: %w", paths, err)
		}
		for _, p := range pkgs {
			if len(p.Errors) > 0 {
				return nil, nil, fmt.Errorf("loading %s: %v", p.PkgPath, p.Errors[0])
			}
			scopes[p.PkgPath] = p.Types.Scope()
		}
	}

	typs := make([]types.Type, len(entries))
	for i, e := range entries {
		scope := types.Universe
		if p := e.Type.PkgPath(); p != "" {
			scope = scopes[p]
		}

		var obj types.Object
		if scope != nil {
			obj = scope.Lookup(e.Type.Name())
		}
		tn, ok := obj.(*types.TypeName)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s (%s.%s)", ErrTypeNotFound, e.Native, e.Type.PkgPath(), e.Type.Name())
		}
		typs[i] = tn.Type()
	}
	return sizes, typs, nil
}
