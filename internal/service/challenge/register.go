package challenge

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/daily-riddle/internal/app"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "riddle.v1.ChallengeService"

// ChallengeServer is the server API for ChallengeService.
type ChallengeServer interface {
	GetTodayRiddle(context.Context, *TodayRiddleRequest) (*TodayRiddleResponse, error)
	SubmitAnswer(context.Context, *SubmitAnswerRequest) (*SubmitAnswerResponse, error)
	GetLeaderboard(context.Context, *LeaderboardRequest) (*LeaderboardResponse, error)
	GetFollowingLeaderboard(context.Context, *FollowingLeaderboardRequest) (*FollowingLeaderboardResponse, error)
	ListAchievements(context.Context, *UserRequest) (*AchievementsResponse, error)
	GetStats(context.Context, *UserRequest) (*StatsResponse, error)
	Follow(context.Context, *FollowRequest) (*FollowResponse, error)
	Unfollow(context.Context, *FollowRequest) (*UnfollowResponse, error)
	ListFollowing(context.Context, *ListFollowsRequest) (*ListFollowsResponse, error)
	ListFollowers(context.Context, *ListFollowsRequest) (*ListFollowsResponse, error)
	Suggestions(context.Context, *SuggestionsRequest) (*SuggestionsResponse, error)
}

var _ ChallengeServer = (*Service)(nil)

// ServiceDesc describes ChallengeService. Messages are plain structs carried
// by the server's JSON codec.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChallengeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetTodayRiddle", ChallengeServer.GetTodayRiddle),
		unary("SubmitAnswer", ChallengeServer.SubmitAnswer),
		unary("GetLeaderboard", ChallengeServer.GetLeaderboard),
		unary("GetFollowingLeaderboard", ChallengeServer.GetFollowingLeaderboard),
		unary("ListAchievements", ChallengeServer.ListAchievements),
		unary("GetStats", ChallengeServer.GetStats),
		unary("Follow", ChallengeServer.Follow),
		unary("Unfollow", ChallengeServer.Unfollow),
		unary("ListFollowing", ChallengeServer.ListFollowing),
		unary("ListFollowers", ChallengeServer.ListFollowers),
		unary("Suggestions", ChallengeServer.Suggestions),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "riddle/v1/challenge",
}

// unary adapts a typed method to a grpc.MethodDesc, running the server's
// interceptor chain when one is installed.
func unary[Req, Resp any](name string, call func(ChallengeServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ChallengeServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ChallengeServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Registrar ties the Challenge service into the gRPC server
type Registrar struct {
	service *Service
}

// NewRegistrar creates a new Registrar for the Challenge service
func NewRegistrar(service *Service) *Registrar {
	return &Registrar{service: service}
}

// Register attaches the Challenge service implementation to the gRPC server
func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, r.service)
}

// NewFromApp is a shortcut used by cmd/server.
func NewFromApp(appCtx *app.AppContext) (*Service, *Registrar) {
	svc := NewChallengeService(appCtx)
	return svc, NewRegistrar(svc)
}
