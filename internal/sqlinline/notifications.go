package sqlinline

const QInsertNotification = `--sql 1d3c43de-50ff-4332-a8ff-e507927ce181
insert into notifications (id, user_id, type, data)
values (gen_random_uuid(), $1, $2, $3);
`
