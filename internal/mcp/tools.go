package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	return nil, GetStatusOutput{
		WindowID: uint32(st.View.WindowID),
		Label:    st.View.Status.Label,
		Popup:    st.View.Status.Popup,
		Preface:  st.View.Preface,
		Tracked:  st.TrackedCount,
	}, nil
}

func (s *Server) handleListToggles(_ context.Context, _ *mcpsdk.CallToolRequest, args ListTogglesInput) (*mcpsdk.CallToolResult, ListTogglesOutput, error) {
	data, err := s.daemon.ListToggles(args.WindowID)
	if err != nil {
		return nil, ListTogglesOutput{}, err
	}
	return nil, ListTogglesOutput{
		WindowID:      data.WindowID,
		AllowMultiple: data.General.AllowMultiple,
		NotifyMe:      data.General.NotifyMe,
		Toggles:       data.Toggles,
	}, nil
}

func (s *Server) handleToggleStyle(_ context.Context, _ *mcpsdk.CallToolRequest, args ToggleStyleInput) (*mcpsdk.CallToolResult, ToggleStyleOutput, error) {
	if args.StyleID < 0 {
		return nil, ToggleStyleOutput{}, fmt.Errorf("style_id must be >= 0")
	}
	command := "toggle-style"
	if args.StyleID > 0 {
		command = fmt.Sprintf("toggle-style-%d", args.StyleID)
	}

	res, err := s.daemon.Toggle(command, args.WindowID, args.State)
	if err != nil {
		return nil, ToggleStyleOutput{}, err
	}
	s.logger.Debug("mcp toggle", "command", command, "applied", res.Applied)

	out := ToggleStyleOutput{
		Applied: res.Applied,
		Preface: res.View.Preface,
		Label:   res.View.Status.Label,
	}
	if res.Applied {
		out.Message = res.Change.Message()
	}
	return nil, out, nil
}

func (s *Server) handleSetGeneral(_ context.Context, _ *mcpsdk.CallToolRequest, args SetGeneralInput) (*mcpsdk.CallToolResult, SetGeneralOutput, error) {
	if args.AllowMultiple == nil && args.NotifyMe == nil {
		return nil, SetGeneralOutput{}, fmt.Errorf("nothing to change: set allow_multiple or notify_me")
	}
	general, err := s.daemon.SetGeneral(args.AllowMultiple, args.NotifyMe)
	if err != nil {
		return nil, SetGeneralOutput{}, err
	}
	return nil, SetGeneralOutput{AllowMultiple: general.AllowMultiple, NotifyMe: general.NotifyMe}, nil
}

func (s *Server) handlePressButton(_ context.Context, _ *mcpsdk.CallToolRequest, _ PressButtonInput) (*mcpsdk.CallToolResult, PressButtonOutput, error) {
	res, err := s.daemon.Click()
	if err != nil {
		return nil, PressButtonOutput{}, err
	}
	out := PressButtonOutput{Popup: res.Popup, Applied: res.Applied}
	if res.Applied {
		out.Message = res.Change.Message()
	}
	return nil, out, nil
}
