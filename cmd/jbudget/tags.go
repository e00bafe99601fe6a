package main

import (
	"fmt"
	"text/tabwriter"
)

type tagCmd struct {
	Add    tagAddCmd    `cmd:"" help:"Create a tag."`
	List   tagListCmd   `cmd:"" help:"List tags as a tree."`
	Rename tagRenameCmd `cmd:"" help:"Rename a tag."`
	Move   tagMoveCmd   `cmd:"" help:"Move a tag under another parent, or to the root."`
	Rm     tagRmCmd     `cmd:"" help:"Remove a tag. Transactions keep the dangling id."`
}

type tagAddCmd struct {
	Name   string `arg:"" help:"Tag name."`
	Parent string `help:"Parent tag id." placeholder:"ID"`
}

func (c *tagAddCmd) Run(rc *runContext) error {
	s, err := rc.session()
	if err != nil {
		return err
	}
	defer s.Close()

	if c.Parent != "" {
		if _, ok := s.Ledger.Tags().GetByID(c.Parent); !ok {
			return fmt.Errorf("parent tag %s not found", c.Parent)
		}
	}
	tag, err := s.Ledger.Tags().CreateTag(rc.ctx, c.Name, c.Parent)
	if err != nil {
		return err
	}
	fmt.Fprintf(rc.out, "%s\t%s\n", tag.ID, tag.Name)
	return nil
}

type tagListCmd struct{}

func (c *tagListCmd) Run(rc *runContext) error {
	s, err := rc.session()
	if err != nil {
		return err
	}
	defer s.Close()

	tags := s.Ledger.Tags()
	w := tabwriter.NewWriter(rc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, root := range tags.ListRoots() {
		fmt.Fprintf(w, "%s\t%s\n", root.ID, root.Name)
		for _, child := range tags.ListChildren(root.ID) {
			fmt.Fprintf(w, "%s\t  %s\n", child.ID, child.Name)
		}
	}
	// Children whose parent was removed.
	for _, t := range tags.ListAll() {
		if t.IsRoot() {
			continue
		}
		if _, ok := tags.GetByID(t.ParentID); !ok {
			fmt.Fprintf(w, "%s\t%s (parent %s missing)\n", t.ID, t.Name, t.ParentID)
		}
	}
	return w.Flush()
}

type tagRenameCmd struct {
	ID   string `arg:"" help:"Tag id."`
	Name string `arg:"" help:"New name."`
}

func (c *tagRenameCmd) Run(rc *runContext) error {
	s, err := rc.session()
	if err != nil {
		return err
	}
	defer s.Close()

	ok, err := s.Ledger.Tags().RenameTag(rc.ctx, c.ID, c.Name)
	return notFound(ok, err, "tag", c.ID)
}

type tagMoveCmd struct {
	ID     string `arg:"" help:"Tag id."`
	Parent string `help:"New parent id; omit to make the tag a root." placeholder:"ID"`
}

func (c *tagMoveCmd) Run(rc *runContext) error {
	s, err := rc.session()
	if err != nil {
		return err
	}
	defer s.Close()

	ok, err := s.Ledger.Tags().ReparentTag(rc.ctx, c.ID, c.Parent)
	return notFound(ok, err, "tag", c.ID)
}

type tagRmCmd struct {
	ID string `arg:"" help:"Tag id."`
}

func (c *tagRmCmd) Run(rc *runContext) error {
	s, err := rc.session()
	if err != nil {
		return err
	}
	defer s.Close()

	ok, err := s.Ledger.Tags().RemoveTag(rc.ctx, c.ID)
	return notFound(ok, err, "tag", c.ID)
}

func notFound(ok bool, err error, what, id string) error {
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s not found", what, id)
	}
	return nil
}
