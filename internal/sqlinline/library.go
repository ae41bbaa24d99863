package sqlinline

const QInsertTrack = `--sql a4b69228-9e5f-4700-a13a-d0fc3531abd0
insert into music_library (id, user_id, title, prompt, lyrics, audio_url, audio_format, provider, track_id, status)
values (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, 'ready')
returning id;
`

const QSetTrackCover = `--sql 849c3ca8-ef10-4795-8494-193e99a1609a
update music_library
set image_url = $2
where id = $1;
`

const QSelectTrack = `--sql ef57c29d-42e3-4d4b-ab2e-e971bf068333
select id, user_id, title, prompt, lyrics, audio_url, coalesce(image_url, ''), audio_format, provider, track_id, status, created_at
from music_library
where id = $1 and user_id = $2;
`

const QSelectRecentTracks = `--sql aafad7dd-89ac-4a2a-8956-748892a8f1d7
select id, user_id, title, prompt, lyrics, audio_url, coalesce(image_url, ''), audio_format, provider, track_id, status, created_at
from music_library
where user_id = $1 and status = 'ready' and created_at >= $2
order by created_at desc
limit $3;
`
